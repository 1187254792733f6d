package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimit indicates the provider rejected the call with 429.
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string { return fmt.Sprintf("rate limited: %v", e.Err) }
func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, unreachable or
// failed the request.
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

// ErrInvalidResponse indicates the stream was malformed, refused or empty.
type ErrInvalidResponse struct {
	Err error
}

func (e *ErrInvalidResponse) Error() string { return fmt.Sprintf("invalid LLM response: %v", e.Err) }
func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// HTTPError is a non-2xx answer from a raw HTTP provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Body)
}

func classifyStatus(code int, err error) error {
	switch {
	case code == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return &ErrInvalidResponse{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// statusLabel is the metrics label for a finished call.
func statusLabel(err error) string {
	var (
		rl  *ErrRateLimit
		inv *ErrInvalidResponse
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &inv):
		return "invalid"
	default:
		return "error"
	}
}
