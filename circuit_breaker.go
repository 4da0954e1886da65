package restfit

import (
	"sync"
	"time"
)

// CircuitPhase is the breaker's observable state.
type CircuitPhase int

const (
	PhaseClosed CircuitPhase = iota
	PhaseOpen
	PhaseHalfOpen
)

// String returns a human readable phase name.
func (p CircuitPhase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseOpen:
		return "open"
	case PhaseHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitState is the mutable breaker state shared by every invocation
// against one service instance. All invocations may complete on different
// goroutines, so mutation is serialized by a mutex.
type CircuitState struct {
	mu           sync.Mutex
	phase        CircuitPhase
	windowStart  time.Time
	failureCount int
	requestCount int
	openedAt     time.Time
}

// NewCircuitState returns a closed breaker state with a fresh window.
func NewCircuitState() *CircuitState {
	return &CircuitState{windowStart: time.Now()}
}

// Phase returns the current breaker phase.
func (cs *CircuitState) Phase() CircuitPhase {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.phase
}

// Counts returns the request and failure counters of the current window.
func (cs *CircuitState) Counts() (requests, failures int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.requestCount, cs.failureCount
}

// circuitBreaker applies a CircuitBreakerPolicy to a shared CircuitState.
// It sits outside the retry loop: Allow gates the logical call and Record
// registers the call's final outcome, not each attempt.
type circuitBreaker struct {
	policy *CircuitBreakerPolicy
	state  *CircuitState
	now    func() time.Time
}

func newCircuitBreaker(policy *CircuitBreakerPolicy, state *CircuitState) *circuitBreaker {
	return &circuitBreaker{policy: policy, state: state, now: time.Now}
}

func (cb *circuitBreaker) enabled() bool {
	return cb.policy != nil && !cb.policy.Disabled
}

// Allow reports whether the next logical call may proceed. In the open
// phase it fast-fails until the open timeout elapses, then transitions to
// half-open and admits exactly one trial call; further calls are rejected
// until the trial settles.
func (cb *circuitBreaker) Allow() bool {
	if !cb.enabled() {
		return true
	}

	cs := cb.state
	cs.mu.Lock()
	defer cs.mu.Unlock()

	switch cs.phase {
	case PhaseClosed:
		return true
	case PhaseOpen:
		if cb.now().Sub(cs.openedAt) >= cb.policy.openTimeout() {
			cs.phase = PhaseHalfOpen
			return true
		}
		return false
	case PhaseHalfOpen:
		// The trial admitted by the open->half-open transition is still in
		// flight.
		return false
	default:
		return false
	}
}

// Record registers a logical call's final outcome. resp is nil when no
// response was received; err is the call's failure, if any.
func (cb *circuitBreaker) Record(resp *Response, err error) {
	if !cb.enabled() {
		return
	}

	failed := cb.isFailure(resp, err)

	cs := cb.state
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cb.now()

	// Samples after the rolling window elapsed belong to a fresh window.
	if cs.phase == PhaseClosed && now.Sub(cs.windowStart) >= cb.policy.window() {
		cs.requestCount = 0
		cs.failureCount = 0
		cs.windowStart = now
	}

	cs.requestCount++
	if failed {
		cs.failureCount++
	}

	switch cs.phase {
	case PhaseHalfOpen:
		if failed {
			cs.phase = PhaseOpen
			cs.openedAt = now
		} else {
			cs.phase = PhaseClosed
			cs.requestCount = 0
			cs.failureCount = 0
			cs.windowStart = now
		}
	case PhaseClosed:
		if cs.requestCount >= cb.policy.minimumRequests() && cs.failureCount >= cb.policy.failureThreshold() {
			cs.phase = PhaseOpen
			cs.openedAt = now
		}
	case PhaseOpen:
		// Outcome of a call admitted before the circuit opened; counters
		// only.
	}
}

func (cb *circuitBreaker) isFailure(resp *Response, err error) bool {
	if cb.policy.IsFailure != nil {
		return cb.policy.IsFailure(resp, err)
	}
	if resp == nil {
		return err != nil
	}
	if codes := cb.policy.ErrorStatusCodes; len(codes) > 0 {
		return containsStatus(codes, resp.StatusCode)
	}
	return resp.StatusCode == 0 || resp.StatusCode >= 500
}
