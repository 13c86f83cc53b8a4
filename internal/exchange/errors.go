// Package exchange provides an HTTP client for the Exchange Online admin
// API with automatic retry, throttling support, and error classification.
package exchange

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, exchange.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("exchange: bad request")
	ErrUnauthorized = errors.New("exchange: unauthorized")
	ErrForbidden    = errors.New("exchange: forbidden")
	ErrNotFound     = errors.New("exchange: not found")
	ErrConflict     = errors.New("exchange: conflict")
	ErrThrottled    = errors.New("exchange: throttled")
	ErrServerError  = errors.New("exchange: server error")
)

// ErrNoCredentials indicates that no usable client credentials were
// configured. Checked before any phase starts.
var ErrNoCredentials = errors.New("exchange: no credentials configured")

// APIError wraps a sentinel error with HTTP status code, request ID, and
// the API error message body for debugging.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("exchange: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("exchange: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
