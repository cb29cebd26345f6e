package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// Describe turns a generation failure into advice a student can act on.
func Describe(err error) string {
	var (
		rl      *ErrRateLimit
		unavail *ErrProviderUnavailable
		invalid *ErrInvalidResponse
		maxTok  *ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The tutor took too long to answer. Try again, or raise llm.timeout."
	case errors.As(err, &rl):
		return "The tutor is busy right now. Wait a minute and try again."
	case errors.As(err, &unavail):
		return "The tutor could not be reached. Check your connection and API key, then try again."
	case errors.As(err, &maxTok):
		return "The answer was too long to finish. Try a narrower topic."
	case errors.As(err, &invalid):
		return "The tutor's answer came back garbled. Try again."
	default:
		return "Something went wrong while generating. Try again."
	}
}
