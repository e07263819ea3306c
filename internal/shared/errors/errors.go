package errors

import (
	"errors"

	"github.com/samber/oops"
)

// Code is a machine-readable error slug attached with oops.Code
type Code string

const (
	CodeFetch              Code = "fetch_error"
	CodeParse              Code = "parse_error"
	CodeContentTooShort    Code = "content_too_short"
	CodePublishRateLimited Code = "publish_rate_limited"
	CodePublishFailed      Code = "publish_failed"
	CodeConfig             Code = "config_error"
)

var (
	ErrMissingChannel       = errors.New("CHANNEL_ID environment variable is required")
	ErrMissingBotToken      = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingDiscordToken  = errors.New("DISCORD_BOT_TOKEN environment variable is required")
	ErrNoFeedSources        = errors.New("at least one feed source is required")
	ErrInvalidFeedSource    = errors.New("invalid feed source")
	ErrUnknownDestination   = errors.New("unknown destination")
	ErrUnknownMarkerBackend = errors.New("unknown marker backend")
	ErrCycleInFlight        = errors.New("pipeline cycle already running")
)

// HasCode reports whether any oops error in the chain carries code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	c, ok := oopsErr.Code().(Code)
	return ok && c == code
}
