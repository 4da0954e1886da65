package restfit

import (
	"fmt"
	"net/http"
	"time"
)

// WithBaseURL sets the base URL every path template is resolved against.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

// WithHeader adds a static header sent with every request. Binding-derived
// headers take precedence on key collision.
func WithHeader(key, value string) Option {
	return func(s *Service) {
		s.headers.Add(key, value)
	}
}

// WithHeaders adds a set of static headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(s *Service) {
		for key, value := range headers {
			s.headers.Set(key, value)
		}
	}
}

// WithAuthorization sets a static credential rendered under the given
// scheme. AuthSchemeCustom uses the credential verbatim.
func WithAuthorization(scheme AuthScheme, token string) Option {
	return func(s *Service) {
		s.authScheme = scheme
		s.authToken = token
		s.authProvider = nil
	}
}

// WithAuthorizationProvider sets a per-call credential supplier. It is
// resolved once per invocation, immediately before bindings apply; an empty
// result adds no Authorization header.
func WithAuthorizationProvider(scheme AuthScheme, provider AuthorizationProvider) Option {
	return func(s *Service) {
		s.authScheme = scheme
		s.authProvider = provider
	}
}

// WithPolicy replaces the service resilience policy. Method-level overrides
// are merged onto it with MergePolicies at call time.
func WithPolicy(policy Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithInterceptors appends service-level response interceptors. They run
// before method-level ones, in registration order, on success and failure.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(s *Service) {
		s.interceptors = append(s.interceptors, interceptors...)
	}
}

// WithTransport sets a custom transport collaborator.
func WithTransport(transport Transport) Option {
	return func(s *Service) {
		s.transport = transport
	}
}

// WithHTTPClient sets the net/http client backing the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.httpClient = client
		if s.timeout != 0 && s.httpClient != nil {
			s.httpClient.Timeout = s.timeout
		}
	}
}

// WithTimeout sets the per-attempt timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
		if s.httpClient != nil {
			s.httpClient.Timeout = d
		}
	}
}

// WithRateLimiter enables a client-side token bucket checked before the
// circuit breaker.
func WithRateLimiter(maxTokens int, refillRate time.Duration) Option {
	return func(s *Service) {
		s.rateLimiter = NewRateLimiter(maxTokens, refillRate)
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(s *Service) {
		s.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

// WithLogger sets a custom logger for debug output.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a plain console logger.
func WithSimpleLogger() Option {
	return func(s *Service) {
		if s.debug == nil {
			s.debug = DefaultDebugConfig()
		}
		s.debug.Enabled = true
		s.logger = NewSimpleLogger()
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(s *Service) {
		if s.debug == nil {
			s.debug = DefaultDebugConfig()
		}
		s.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(s *Service) {
		s.debug = config
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if s.debug == nil {
			s.debug = DefaultDebugConfig()
		}
		s.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the service configuration and the
// registered descriptors, returning an error if anything is malformed.
func (s *Service) ValidateConfiguration() error {
	var problems []string

	problems = append(problems, s.validateRetryConfig()...)
	problems = append(problems, s.validateCircuitBreakerConfig()...)
	problems = append(problems, s.validateRateLimiterConfig()...)
	problems = append(problems, s.validateDebugConfig()...)
	problems = append(problems, s.validateDescriptors()...)

	if len(problems) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}

	return nil
}

func (s *Service) validateRetryConfig() []string {
	var problems []string

	p := s.policy.Retry
	if p == nil || p.Disabled {
		return nil
	}
	if p.Retries != nil && *p.Retries < 0 {
		problems = append(problems, "retry retries must be non-negative")
	}
	if p.BaseDelay != nil && *p.BaseDelay <= 0 {
		problems = append(problems, "retry baseDelay must be positive")
	}
	if p.BaseDelay != nil && p.MaxDelay != nil && *p.MaxDelay < *p.BaseDelay {
		problems = append(problems, "retry maxDelay must be greater than or equal to baseDelay")
	}
	if p.Multiplier != nil && *p.Multiplier <= 0 {
		problems = append(problems, "retry multiplier must be positive")
	}
	if p.Jitter != nil && (*p.Jitter < 0 || *p.Jitter > 1) {
		problems = append(problems, "retry jitter must be between 0 and 1")
	}

	return problems
}

func (s *Service) validateCircuitBreakerConfig() []string {
	var problems []string

	p := s.policy.CircuitBreaker
	if p == nil || p.Disabled {
		return nil
	}
	if p.FailureThreshold != nil && *p.FailureThreshold <= 0 {
		problems = append(problems, "circuitBreaker failureThreshold must be positive")
	}
	if p.Window != nil && *p.Window <= 0 {
		problems = append(problems, "circuitBreaker window must be positive")
	}
	if p.OpenTimeout != nil && *p.OpenTimeout <= 0 {
		problems = append(problems, "circuitBreaker openTimeout must be positive")
	}
	if p.MinimumRequests != nil && *p.MinimumRequests <= 0 {
		problems = append(problems, "circuitBreaker minimumRequests must be positive")
	}

	return problems
}

func (s *Service) validateRateLimiterConfig() []string {
	var problems []string

	if s.rateLimiter != nil {
		if s.rateLimiter.maxTokens <= 0 {
			problems = append(problems, "rateLimiter maxTokens must be positive")
		}
		if s.rateLimiter.refillRate <= 0 {
			problems = append(problems, "rateLimiter refillRate must be positive")
		}
	}

	return problems
}

func (s *Service) validateDebugConfig() []string {
	var problems []string

	if s.debug != nil && s.debug.Enabled {
		if s.debug.RequestIDGen == nil {
			problems = append(problems, "debug RequestIDGen must be set when debug is enabled")
		}
		if s.logger == nil {
			problems = append(problems, "logger must be set when debug is enabled")
		}
	}

	return problems
}

var knownVerbs = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

func (s *Service) validateDescriptors() []string {
	var problems []string

	for _, name := range s.registry.Methods() {
		desc, _ := s.registry.Descriptor(name)
		if _, ok := knownVerbs[desc.Method]; !ok {
			problems = append(problems, fmt.Sprintf("method %q: unsupported HTTP verb %q", name, desc.Method))
		}
		seen := map[int]struct{}{}
		for _, b := range desc.bindings {
			if b.Index < 0 {
				problems = append(problems, fmt.Sprintf("method %q: negative binding index %d", name, b.Index))
				continue
			}
			if _, dup := seen[b.Index]; dup {
				problems = append(problems, fmt.Sprintf("method %q: duplicate binding for argument %d", name, b.Index))
			}
			seen[b.Index] = struct{}{}
		}
	}

	return problems
}
