package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

const (
	minRetryAfter      = time.Second
	transientAttempts  = 3
	transientBaseDelay = time.Second
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Publisher delivers segments in order. Rate limits are waited out for as
// long as the destination asks, transport errors get a few attempts and HTTP
// failures stop the publish.
type Publisher struct {
	sender     domain.Sender
	limiter    *rate.Limiter
	sleep      SleepFunc
	newBackOff func() backoff.BackOff
}

// NewPublisher paces consecutive sends at least pacing apart
func NewPublisher(sender domain.Sender, pacing time.Duration) *Publisher {
	return &Publisher{
		sender:     sender,
		limiter:    rate.NewLimiter(rate.Every(pacing), 1),
		sleep:      Sleep,
		newBackOff: NewTransientBackOff,
	}
}

// WithSleep replaces the function used for rate limit waits
func (p *Publisher) WithSleep(sleep SleepFunc) *Publisher {
	p.sleep = sleep
	return p
}

// WithBackOff replaces the schedule used between transient send failures
func (p *Publisher) WithBackOff(newBackOff func() backoff.BackOff) *Publisher {
	p.newBackOff = newBackOff
	return p
}

// Publish sends every segment and then every link with preview suppressed.
// It returns how many messages were delivered before the first failure.
func (p *Publisher) Publish(ctx context.Context, segments, links []string) (int, error) {
	total := len(segments) + len(links)
	sent := 0

	for i := 0; i < total; i++ {
		text, isLink := "", false
		if i < len(segments) {
			text = segments[i]
		} else {
			text, isLink = links[i-len(segments)], true
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return sent, oops.Code(errors.CodePublishFailed).With("segment", i, "total", total).Wrap(err)
		}

		if err := p.send(ctx, text, isLink); err != nil {
			return sent, oops.With("segment", i, "total", total, "link", isLink).Wrap(err)
		}
		sent++

		slog.Debug("Delivered segment", "segment", i+1, "total", total, "link", isLink)
	}

	return sent, nil
}

func (p *Publisher) send(ctx context.Context, text string, suppressPreview bool) error {
	attempts := 0
	operation := func() (struct{}, error) {
		attempts++
		return struct{}{}, p.sendWaitingOutRateLimits(ctx, text, suppressPreview)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(transientAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Send failed, retrying", "attempt", attempts, "backoff", next, "error", err)
		}),
	)
	if err == nil {
		return nil
	}

	if errors.HasCode(err, errors.CodePublishRateLimited) || errors.HasCode(err, errors.CodePublishFailed) {
		return err
	}
	return oops.Code(errors.CodePublishFailed).With("attempts", attempts).Wrap(err)
}

// sendWaitingOutRateLimits retries a send for as long as the destination
// answers with a rate limit. HTTP failures come back permanent.
func (p *Publisher) sendWaitingOutRateLimits(ctx context.Context, text string, suppressPreview bool) error {
	for {
		err := p.sender.Send(ctx, text, suppressPreview)
		if err == nil {
			return nil
		}

		var rateLimited *domain.RateLimitedError
		var delivery *domain.DeliveryError

		switch {
		case stderrors.As(err, &rateLimited):
			wait := rateLimited.RetryAfter
			if wait <= 0 {
				wait = minRetryAfter
			}
			slog.Warn("Rate limited by destination", "retry_after", wait)
			if err := p.sleep(ctx, wait); err != nil {
				return backoff.Permanent(oops.Code(errors.CodePublishRateLimited).With("retry_after", wait).Wrap(err))
			}

		case stderrors.As(err, &delivery):
			return backoff.Permanent(oops.Code(errors.CodePublishFailed).With("status", delivery.Code).Wrap(err))

		case ctx.Err() != nil:
			return backoff.Permanent(oops.Code(errors.CodePublishFailed).Wrap(ctx.Err()))

		default:
			return err
		}
	}
}

// NewTransientBackOff is the wait schedule between attempts at a send that
// failed without an HTTP status: 1s, then 2s
func NewTransientBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = transientBaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 10 * time.Second
	return bo
}

// Sleep waits for d unless ctx is cancelled first
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
