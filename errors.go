package restfit

import (
	"errors"
	"fmt"
	"time"
)

// Error type identifiers carried by ClientError.Type.
const (
	ErrorTypeNetwork     = "Network"
	ErrorTypeTimeout     = "Timeout"
	ErrorTypeServer      = "Server"
	ErrorTypeClient      = "Client"
	ErrorTypeCircuitOpen = "CircuitOpen"
	ErrorTypeRateLimit   = "RateLimit"
	ErrorTypeRequest     = "Request"
	ErrorTypeValidation  = "Validation"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state.
	ErrCircuitOpen = errors.New("restfit: circuit open")

	// ErrRateLimited is returned when a request is denied due to rate limiting.
	ErrRateLimited = errors.New("restfit: rate limited")
)

// ClientError is the failure surfaced by an invocation. Response is the
// server's response when one was received (possibly mutated by the
// interceptor chain); it is nil only for failures that never reached the
// pipeline, such as a fast-failing circuit breaker.
type ClientError struct {
	Type       string
	Message    string
	Code       string // machine-readable transport code, e.g. "timeout"
	Method     string // registered method name
	Verb       string // HTTP verb
	URL        string
	StatusCode int
	Attempt    int
	Response   *Response
	Timestamp  time.Time
	Duration   time.Duration
	Cause      error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Method != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Method)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempt+1)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is. The sentinels ErrCircuitOpen and
// ErrRateLimited match their corresponding typed errors.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrCircuitOpen:
		return e.Type == ErrorTypeCircuitOpen
	case ErrRateLimited:
		return e.Type == ErrorTypeRateLimit
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// IsTransient determines if an error represents a failure that might succeed
// on retry: network errors, timeouts, 5xx responses, 429, and resilience
// layer rejections. 4xx client errors (except 429) are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimited) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeServer, ErrorTypeRateLimit, ErrorTypeCircuitOpen:
			return true
		case ErrorTypeClient:
			return clientErr.StatusCode == 429
		default:
			return false
		}
	}

	return false
}
