package restfit

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Role classifies how a positional argument is bound into the outgoing
// request.
type Role int

const (
	RolePath Role = iota
	RoleQuery
	RoleBody
	RoleHeader
)

// String returns a human readable role name.
func (r Role) String() string {
	switch r {
	case RolePath:
		return "path"
	case RoleQuery:
		return "query"
	case RoleBody:
		return "body"
	case RoleHeader:
		return "header"
	default:
		return "unknown"
	}
}

// Binding associates one positional argument with a request location.
// Name is empty for body bindings.
type Binding struct {
	Role  Role
	Name  string
	Index int
}

// SuccessHandler receives the settled response payload and produces the
// call's return value. A returned error propagates to the caller unchanged.
type SuccessHandler func(data []byte) (any, error)

// ErrorHandler receives the call's failure and may recover with a value.
// A returned error propagates to the caller unchanged.
type ErrorHandler func(err *ClientError) (any, error)

// Interceptor inspects the current response and may return a replacement,
// which becomes the current response for the rest of the chain. Returning
// nil leaves the response unchanged.
type Interceptor func(resp *Response) *Response

// RetryNotification fires after each failed attempt, before the retry delay,
// with the 1-based retry count. It is observability only and never alters
// control flow.
type RetryNotification func(retryCount int, err error)

// AuthorizationProvider yields a credential value for one invocation.
// An empty value means no Authorization header is added.
type AuthorizationProvider func(ctx context.Context) (string, error)

// AuthScheme selects how a resolved credential is rendered into the
// Authorization header. AuthSchemeCustom uses the credential verbatim.
type AuthScheme string

const (
	AuthSchemeBearer AuthScheme = "Bearer"
	AuthSchemeBasic  AuthScheme = "Basic"
	AuthSchemeCustom AuthScheme = ""
)

// Invoker is a synthesized method bound to a service instance.
type Invoker func(ctx context.Context, args ...any) (any, error)

// Transport is the collaborator that actually sends a constructed request.
// It returns a *Response for every HTTP exchange that produced one,
// regardless of status code, and an error only when no response was
// received (DNS, connect, timeout).
type Transport interface {
	Send(ctx context.Context, req *RequestContext) (*Response, error)
}

// RequestContext carries one invocation's fully resolved request. It is
// built fresh for every call and discarded after the call settles.
type RequestContext struct {
	Method string
	URL    string
	Query  url.Values
	Body   []byte
	Header http.Header
}

// Option configures a Service.
type Option func(*Service)

// MethodOption contributes metadata to a method descriptor. Options are
// cumulative: registering a method again appends, never replaces.
type MethodOption func(*Descriptor)

// RateLimiter is a token bucket applied ahead of the circuit breaker.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}
