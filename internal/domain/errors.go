package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing messages. Raw errors are logged, never shown.
const (
	ServiceUnavailableMessage = "Service Unavailable: the drafting service did not respond after several attempts. Please try again later."
	NetworkErrorMessage       = "Network error. Please check your connection and try again."
	TimeoutMessage            = "The request timed out. Try a shorter description."
	ServerBusyMessage         = "The request took too long. Please simplify your input."
	NotFoundMessage           = "The drafting server endpoint was not found."
	GenericFailureMessage     = "Failed to generate draft. Please try again."
)

// ErrNotFound indicates a missing submission.
var ErrNotFound = errors.New("submission not found")

// ErrStoreNotConfigured indicates that no submission store is configured.
var ErrStoreNotConfigured = errors.New("submission store not configured")

// ValidationError indicates input rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError indicates the upstream could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError indicates a non-2xx response from the relay or upstream API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status warrants another attempt (429 or 5xx).
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// StreamParseError describes a single malformed SSE frame. It is logged and
// the stream continues.
type StreamParseError struct {
	Data string
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("malformed stream frame: %.80q", e.Data)
}

// ConfigurationError indicates missing server-side configuration.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

// IsRetryable reports whether err is a retryable upstream failure.
func IsRetryable(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr) && upstreamErr.Retryable()
}

// UserMessage maps an error to the fixed string shown to end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return NetworkErrorMessage
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		switch {
		case upstreamErr.StatusCode == http.StatusGatewayTimeout:
			return TimeoutMessage
		case upstreamErr.StatusCode >= http.StatusInternalServerError:
			return ServerBusyMessage
		case upstreamErr.StatusCode == http.StatusNotFound:
			return NotFoundMessage
		}
	}

	return GenericFailureMessage
}
