package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	text            string
	suppressPreview bool
	at              time.Time
}

// scriptedSender fails each call with the next scripted error, then succeeds
type scriptedSender struct {
	mu       sync.Mutex
	failures []error
	attempts []sentMessage
	sent     []sentMessage
}

func (s *scriptedSender) Send(_ context.Context, text string, suppressPreview bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := sentMessage{text: text, suppressPreview: suppressPreview, at: time.Now()}
	s.attempts = append(s.attempts, msg)
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		if err != nil {
			return err
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

type recordedSleeps struct {
	waits []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

// recordedBackOff counts the waits between transient attempts without sleeping
type recordedBackOff struct {
	waits int
}

func (r *recordedBackOff) newSchedule() backoff.BackOff {
	return r
}

func (r *recordedBackOff) Reset() {}

func (r *recordedBackOff) NextBackOff() time.Duration {
	r.waits++
	return time.Millisecond
}

func TestPublishSendsSegmentsThenLinks(t *testing.T) {
	sender := &scriptedSender{}
	publisher := NewPublisher(sender, 0)

	sent, err := publisher.Publish(context.Background(), []string{"one", "two"}, []string{"https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "one", sender.sent[0].text)
	assert.False(t, sender.sent[0].suppressPreview)
	assert.Equal(t, "two", sender.sent[1].text)
	assert.Equal(t, "https://example.com/a", sender.sent[2].text)
	assert.True(t, sender.sent[2].suppressPreview)
}

func TestPublishWaitsOutRateLimit(t *testing.T) {
	sender := &scriptedSender{failures: []error{&domain.RateLimitedError{RetryAfter: 1200 * time.Millisecond}}}
	publisher := NewPublisher(sender, 0)

	started := time.Now()
	sent, err := publisher.Publish(context.Background(), []string{"segment"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	require.Len(t, sender.attempts, 2)
	assert.GreaterOrEqual(t, sender.attempts[1].at.Sub(started), 1200*time.Millisecond)
	assert.Len(t, sender.sent, 1)
}

func TestPublishRateLimitRetriesAreUnbounded(t *testing.T) {
	failures := make([]error, 10)
	for i := range failures {
		failures[i] = &domain.RateLimitedError{}
	}
	sender := &scriptedSender{failures: failures}
	sleeps := &recordedSleeps{}
	publisher := NewPublisher(sender, 0).WithSleep(sleeps.sleep)

	sent, err := publisher.Publish(context.Background(), []string{"segment"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, sleeps.waits, 10)
	for _, wait := range sleeps.waits {
		assert.Equal(t, time.Second, wait)
	}
}

func TestPublishStopsOnDeliveryError(t *testing.T) {
	sender := &scriptedSender{failures: []error{nil, &domain.DeliveryError{Code: 400, Description: "Bad Request: chat not found"}}}
	sleeps := &recordedSleeps{}
	publisher := NewPublisher(sender, 0).WithSleep(sleeps.sleep)

	sent, err := publisher.Publish(context.Background(), []string{"one", "two", "three"}, []string{"https://example.com"})
	require.Error(t, err)

	assert.Equal(t, 1, sent)
	assert.Len(t, sender.attempts, 2)
	assert.Empty(t, sleeps.waits)
	assert.True(t, errors.HasCode(err, errors.CodePublishFailed))

	var delivery *domain.DeliveryError
	require.ErrorAs(t, err, &delivery)
	assert.Equal(t, 400, delivery.Code)
}

func TestPublishRetriesTransportErrors(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		sender := &scriptedSender{failures: []error{stderrors.New("connection reset"), stderrors.New("timeout")}}
		schedule := &recordedBackOff{}

		sent, err := NewPublisher(sender, 0).WithBackOff(schedule.newSchedule).Publish(context.Background(), []string{"x"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Len(t, sender.attempts, 3)
		assert.Equal(t, 2, schedule.waits)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		boom := stderrors.New("connection refused")
		sender := &scriptedSender{failures: []error{boom, boom, boom}}
		schedule := &recordedBackOff{}

		sent, err := NewPublisher(sender, 0).WithBackOff(schedule.newSchedule).Publish(context.Background(), []string{"x"}, nil)
		require.Error(t, err)
		assert.Equal(t, 0, sent)
		assert.Len(t, sender.attempts, 3)
		assert.Equal(t, 2, schedule.waits)
		assert.ErrorIs(t, err, boom)
		assert.True(t, errors.HasCode(err, errors.CodePublishFailed))
	})

	t.Run("delivery error after transient failure is not retried", func(t *testing.T) {
		sender := &scriptedSender{failures: []error{stderrors.New("timeout"), &domain.DeliveryError{Code: 403}}}
		schedule := &recordedBackOff{}

		_, err := NewPublisher(sender, 0).WithBackOff(schedule.newSchedule).Publish(context.Background(), []string{"x"}, nil)
		require.Error(t, err)
		assert.Len(t, sender.attempts, 2)
		assert.Equal(t, 1, schedule.waits)

		var delivery *domain.DeliveryError
		require.ErrorAs(t, err, &delivery)
		assert.Equal(t, 403, delivery.Code)
	})
}

func TestTransientBackOffSchedule(t *testing.T) {
	bo := NewTransientBackOff()
	bo.Reset()

	assert.Equal(t, time.Second, bo.NextBackOff())
	assert.Equal(t, 2*time.Second, bo.NextBackOff())
}

func TestPublishKeepsSubSecondRetryAfter(t *testing.T) {
	sender := &scriptedSender{failures: []error{&domain.RateLimitedError{RetryAfter: 300 * time.Millisecond}}}
	sleeps := &recordedSleeps{}

	sent, err := NewPublisher(sender, 0).WithSleep(sleeps.sleep).Publish(context.Background(), []string{"x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, sleeps.waits)
}

func TestPublishHonoursCancellation(t *testing.T) {
	sender := &scriptedSender{failures: []error{&domain.RateLimitedError{RetryAfter: time.Hour}}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sent, err := NewPublisher(sender, 0).Publish(ctx, []string{"x"}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, sent)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishPacesSends(t *testing.T) {
	sender := &scriptedSender{}
	publisher := NewPublisher(sender, 100*time.Millisecond)

	_, err := publisher.Publish(context.Background(), []string{"a", "b", "c"}, nil)
	require.NoError(t, err)

	require.Len(t, sender.sent, 3)
	assert.GreaterOrEqual(t, sender.sent[2].at.Sub(sender.sent[0].at), 180*time.Millisecond)
}
