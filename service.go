package restfit

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Service dispatches declaratively registered methods. It owns the circuit
// state shared by all its invocations and is safe for concurrent use.
type Service struct {
	registry     *Registry
	transport    Transport
	httpClient   *http.Client
	timeout      time.Duration
	baseURL      string
	headers      http.Header
	authScheme   AuthScheme
	authToken    string
	authProvider AuthorizationProvider
	policy       Policy
	interceptors []Interceptor
	circuit      *CircuitState
	rateLimiter  *RateLimiter
	metrics      *MetricsCollector
	debug        *DebugConfig
	logger       Logger

	validationError error
}

// New composes a dispatcher over the given registry using the provided
// functional options. A best effort validation is performed; call IsValid /
// ValidationError for errors.
func New(registry *Registry, options ...Option) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Service{
		registry: registry,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: http.Header{},
		policy:  DefaultPolicy(),
		circuit: NewCircuitState(),
		debug:   DefaultDebugConfig(),
	}

	for _, option := range options {
		option(s)
	}

	if s.transport == nil {
		s.transport = NewHTTPTransport(s.httpClient)
	}

	if err := s.ValidateConfiguration(); err != nil {
		s.validationError = err
	}

	return s
}

// Registry returns the registration table this service dispatches over.
func (s *Service) Registry() *Registry {
	return s.registry
}

// CircuitState exposes the breaker state shared by this service's
// invocations, for observability.
func (s *Service) CircuitState() *CircuitState {
	return s.circuit
}

// Invoker returns the synthesized callable for a registered method.
func (s *Service) Invoker(method string) (Invoker, error) {
	if _, ok := s.registry.Descriptor(method); !ok {
		return nil, unknownMethodError(method)
	}
	return func(ctx context.Context, args ...any) (any, error) {
		return s.Invoke(ctx, method, args...)
	}, nil
}

// Invoke issues one logical call of a registered method: the descriptor is
// resolved, the request constructed, the transport exchange executed under
// the resilience policy, the interceptor chain applied, and the final value
// selected by success/error handler lookup.
func (s *Service) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	start := time.Now()

	desc, ok := s.registry.Descriptor(method)
	if !ok {
		return nil, unknownMethodError(method)
	}

	var requestID string
	if s.debug != nil && s.debug.Enabled && s.debug.RequestIDGen != nil {
		requestID = s.debug.RequestIDGen()
	}
	if s.debug != nil && s.debug.Enabled && s.debug.LogRequests && s.logger != nil {
		s.logger.Debug("Starting invocation", "requestID", requestID, "method", method, "verb", desc.Method, "path", desc.PathTemplate)
	}

	if s.metrics != nil {
		s.metrics.RecordRequestStart(desc.Method, method)
		defer s.metrics.RecordRequestEnd(desc.Method, method)
	}

	policy := s.policy
	if desc.policy != nil {
		policy = MergePolicies(policy, *desc.policy)
	}

	if s.rateLimiter != nil {
		if !s.rateLimiter.Allow() {
			if s.debug != nil && s.debug.Enabled && s.debug.LogRateLimit && s.logger != nil {
				s.logger.Warn("Rate limit exceeded", "requestID", requestID, "method", method)
			}
			if s.metrics != nil {
				s.metrics.RecordError(ErrorTypeRateLimit, desc.Method, method)
			}
			return nil, &ClientError{
				Type:      ErrorTypeRateLimit,
				Message:   "rate limit exceeded",
				Method:    method,
				Verb:      desc.Method,
				Timestamp: time.Now(),
				Duration:  time.Since(start),
			}
		}
		if s.metrics != nil {
			s.metrics.RecordRateLimiterTokens("default", s.rateLimiter.Tokens())
		}
	}

	breaker := newCircuitBreaker(policy.CircuitBreaker, s.circuit)
	if !breaker.Allow() {
		if s.debug != nil && s.debug.Enabled && s.debug.LogCircuit && s.logger != nil {
			s.logger.Warn("Circuit breaker open", "requestID", requestID, "method", method, "phase", s.circuit.Phase().String())
		}
		if s.metrics != nil {
			s.metrics.RecordError(ErrorTypeCircuitOpen, desc.Method, method)
			s.metrics.RecordCircuitBreakerState("default", s.circuit.Phase())
		}
		return nil, &ClientError{
			Type:      ErrorTypeCircuitOpen,
			Message:   "circuit breaker is open",
			Method:    method,
			Verb:      desc.Method,
			Timestamp: time.Now(),
			Duration:  time.Since(start),
		}
	}

	rc, err := s.buildRequest(ctx, desc, args)
	if err != nil {
		// The breaker admitted this call; an aborted build still settles it,
		// so a half-open trial cannot hang the phase forever.
		breaker.Record(nil, err)
		if s.metrics != nil {
			s.metrics.RecordError(ErrorTypeRequest, desc.Method, method)
		}
		return nil, err
	}

	resp, callErr := s.executeWithRetry(ctx, desc, rc, policy.Retry, requestID)

	var recordErr error
	if callErr != nil {
		recordErr = callErr
	}
	breaker.Record(resp, recordErr)
	if s.metrics != nil {
		s.metrics.RecordCircuitBreakerState("default", s.circuit.Phase())
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if s.metrics != nil {
		s.metrics.RecordRequest(desc.Method, method, statusCode, time.Since(start))
		if callErr != nil {
			s.metrics.RecordError(callErr.Type, desc.Method, method)
		}
	}

	chain := make([]Interceptor, 0, len(s.interceptors)+len(desc.interceptors))
	chain = append(chain, s.interceptors...)
	chain = append(chain, desc.interceptors...)

	if callErr == nil {
		final, _ := applyInterceptors(chain, resp, false)
		if s.debug != nil && s.debug.Enabled && s.debug.LogRequests && s.logger != nil {
			s.logger.Debug("Invocation settled", "requestID", requestID, "method", method, "status", final.StatusCode, "duration", time.Since(start))
		}
		return resolveSuccess(desc, final)
	}

	current := callErr.Response
	if current == nil {
		current = SyntheticFailure(callErr.Message, callErr.Code)
		current.Request = rc
	}
	final, promoted := applyInterceptors(chain, current, true)
	if promoted {
		if s.debug != nil && s.debug.Enabled && s.debug.LogRequests && s.logger != nil {
			s.logger.Debug("Failure promoted to success by interceptor", "requestID", requestID, "method", method, "status", final.StatusCode)
		}
		return final.Data, nil
	}

	// Interceptor-applied mutations stay visible on the surfaced failure.
	callErr.Response = final
	callErr.StatusCode = final.StatusCode
	callErr.Duration = time.Since(start)

	if s.debug != nil && s.debug.Enabled && s.debug.LogRequests && s.logger != nil {
		s.logger.Debug("Invocation failed", "requestID", requestID, "method", method, "status", final.StatusCode, "error", callErr.Error())
	}

	return resolveFailure(desc, callErr)
}

func unknownMethodError(method string) *ClientError {
	return &ClientError{
		Type:      ErrorTypeValidation,
		Message:   fmt.Sprintf("unknown method %q", method),
		Method:    method,
		Timestamp: time.Now(),
	}
}

// IsValid reports whether configuration validation passed at construction.
func (s *Service) IsValid() bool {
	return s.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (s *Service) ValidationError() error {
	return s.validationError
}
