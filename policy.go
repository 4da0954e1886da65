package restfit

import (
	"time"
)

// Pointer helpers for the optional policy fields. A nil field means "unset"
// and inherits the base value during a merge, or the documented default at
// execution time.

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Duration returns a pointer to v.
func Duration(v time.Duration) *time.Duration { return &v }

// RetryPolicy governs the attempts of a single logical call. Disabled
// short-circuits the policy regardless of the other fields.
type RetryPolicy struct {
	Disabled             bool
	Retries              *int           // default 3
	BaseDelay            *time.Duration // default 100ms
	MaxDelay             *time.Duration // default 10s
	Exponential          *bool          // default true
	Multiplier           *float64       // default 2
	Jitter               *float64       // default 0, fraction of the delay
	RetryableStatusCodes []int          // default 408, 429, 500, 502, 503, 504
	RetryOnNetworkError  *bool          // default true

	// ShouldRetry, when set, is authoritative: it receives the failure and
	// the zero-based count of retries so far. The retries+1 attempt bound
	// still applies.
	ShouldRetry func(err *ClientError, retryCount int) bool

	// Delay, when set, replaces the backoff schedule.
	Delay func(retryCount int, err *ClientError) time.Duration
}

func (p *RetryPolicy) retries() int {
	if p == nil || p.Retries == nil {
		return 3
	}
	if *p.Retries < 0 {
		return 0
	}
	return *p.Retries
}

func (p *RetryPolicy) baseDelay() time.Duration {
	if p == nil || p.BaseDelay == nil {
		return 100 * time.Millisecond
	}
	return *p.BaseDelay
}

func (p *RetryPolicy) maxDelay() time.Duration {
	if p == nil || p.MaxDelay == nil {
		return 10 * time.Second
	}
	return *p.MaxDelay
}

func (p *RetryPolicy) exponential() bool {
	if p == nil || p.Exponential == nil {
		return true
	}
	return *p.Exponential
}

func (p *RetryPolicy) multiplier() float64 {
	if p == nil || p.Multiplier == nil || *p.Multiplier <= 0 {
		return 2
	}
	return *p.Multiplier
}

func (p *RetryPolicy) jitterFraction() float64 {
	if p == nil || p.Jitter == nil {
		return 0
	}
	return *p.Jitter
}

func (p *RetryPolicy) retryOnNetworkError() bool {
	if p == nil || p.RetryOnNetworkError == nil {
		return true
	}
	return *p.RetryOnNetworkError
}

func (p *RetryPolicy) retryableStatuses() []int {
	if p == nil || p.RetryableStatusCodes == nil {
		return []int{408, 429, 500, 502, 503, 504}
	}
	return p.RetryableStatusCodes
}

// CircuitBreakerPolicy governs whether a logical call is attempted at all.
type CircuitBreakerPolicy struct {
	Disabled         bool
	FailureThreshold *int           // default 5
	Window           *time.Duration // rolling window, default 60s
	OpenTimeout      *time.Duration // open to half-open, default 30s
	MinimumRequests  *int           // default 1
	ErrorStatusCodes []int          // default: any 5xx

	// IsFailure, when set, replaces the default outcome classification.
	// resp is nil when no response was received.
	IsFailure func(resp *Response, err error) bool
}

func (p *CircuitBreakerPolicy) failureThreshold() int {
	if p == nil || p.FailureThreshold == nil {
		return 5
	}
	return *p.FailureThreshold
}

func (p *CircuitBreakerPolicy) window() time.Duration {
	if p == nil || p.Window == nil {
		return 60 * time.Second
	}
	return *p.Window
}

func (p *CircuitBreakerPolicy) openTimeout() time.Duration {
	if p == nil || p.OpenTimeout == nil {
		return 30 * time.Second
	}
	return *p.OpenTimeout
}

func (p *CircuitBreakerPolicy) minimumRequests() int {
	if p == nil || p.MinimumRequests == nil {
		return 1
	}
	return *p.MinimumRequests
}

// Policy is the combined resilience configuration for a service or a single
// method. A nil sub-policy means the concern is absent: no retries, or no
// circuit breaking.
type Policy struct {
	Retry          *RetryPolicy
	CircuitBreaker *CircuitBreakerPolicy
}

// DefaultPolicy returns the policy a Service starts with: three retries with
// exponential backoff over the usual transient statuses, and a breaker
// opening after five failures in a 60s window.
func DefaultPolicy() Policy {
	return Policy{
		Retry: &RetryPolicy{
			Retries:              Int(3),
			BaseDelay:            Duration(100 * time.Millisecond),
			MaxDelay:             Duration(10 * time.Second),
			Exponential:          Bool(true),
			Multiplier:           Float(2),
			RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
			RetryOnNetworkError:  Bool(true),
		},
		CircuitBreaker: &CircuitBreakerPolicy{
			FailureThreshold: Int(5),
			Window:           Duration(60 * time.Second),
			OpenTimeout:      Duration(30 * time.Second),
			MinimumRequests:  Int(1),
		},
	}
}

// MergePolicies combines an override onto a base, independently per
// sub-policy: a nil override sub-policy keeps the base verbatim, an
// explicitly disabled override disables the result regardless of the base,
// and otherwise set override fields overwrite the corresponding base fields.
func MergePolicies(base, override Policy) Policy {
	return Policy{
		Retry:          mergeRetry(base.Retry, override.Retry),
		CircuitBreaker: mergeCircuitBreaker(base.CircuitBreaker, override.CircuitBreaker),
	}
}

func mergeRetry(base, override *RetryPolicy) *RetryPolicy {
	if override == nil {
		return base
	}
	if override.Disabled {
		return &RetryPolicy{Disabled: true}
	}
	merged := RetryPolicy{}
	if base != nil {
		merged = *base
		merged.Disabled = false
	}
	if override.Retries != nil {
		merged.Retries = override.Retries
	}
	if override.BaseDelay != nil {
		merged.BaseDelay = override.BaseDelay
	}
	if override.MaxDelay != nil {
		merged.MaxDelay = override.MaxDelay
	}
	if override.Exponential != nil {
		merged.Exponential = override.Exponential
	}
	if override.Multiplier != nil {
		merged.Multiplier = override.Multiplier
	}
	if override.Jitter != nil {
		merged.Jitter = override.Jitter
	}
	if override.RetryableStatusCodes != nil {
		merged.RetryableStatusCodes = override.RetryableStatusCodes
	}
	if override.RetryOnNetworkError != nil {
		merged.RetryOnNetworkError = override.RetryOnNetworkError
	}
	if override.ShouldRetry != nil {
		merged.ShouldRetry = override.ShouldRetry
	}
	if override.Delay != nil {
		merged.Delay = override.Delay
	}
	return &merged
}

func mergeCircuitBreaker(base, override *CircuitBreakerPolicy) *CircuitBreakerPolicy {
	if override == nil {
		return base
	}
	if override.Disabled {
		return &CircuitBreakerPolicy{Disabled: true}
	}
	merged := CircuitBreakerPolicy{}
	if base != nil {
		merged = *base
		merged.Disabled = false
	}
	if override.FailureThreshold != nil {
		merged.FailureThreshold = override.FailureThreshold
	}
	if override.Window != nil {
		merged.Window = override.Window
	}
	if override.OpenTimeout != nil {
		merged.OpenTimeout = override.OpenTimeout
	}
	if override.MinimumRequests != nil {
		merged.MinimumRequests = override.MinimumRequests
	}
	if override.ErrorStatusCodes != nil {
		merged.ErrorStatusCodes = override.ErrorStatusCodes
	}
	if override.IsFailure != nil {
		merged.IsFailure = override.IsFailure
	}
	return &merged
}

func containsStatus(set []int, status int) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
