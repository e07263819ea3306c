package domain

import (
	"context"
	"fmt"
	"time"
)

// Sender posts one text message to the destination channel
type Sender interface {
	Send(ctx context.Context, text string, suppressPreview bool) error
}

// HistoryEntry is one message previously posted to the destination channel
type HistoryEntry struct {
	Author  string
	Content string
}

// HistoryReader reads recent messages of the destination channel
type HistoryReader interface {
	// Self returns the author name this publisher posts under
	Self(ctx context.Context) (string, error)
	Recent(ctx context.Context, n int) ([]HistoryEntry, error)
}

// RateLimitedError is returned by a Sender when the destination answered 429.
// RetryAfter is zero when the destination did not say how long to wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// DeliveryError is a non rate-limit HTTP failure. It is never retried.
type DeliveryError struct {
	Code        int
	Description string
}

func (e *DeliveryError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("delivery failed with status %d", e.Code)
	}
	return fmt.Sprintf("delivery failed with status %d: %s", e.Code, e.Description)
}
