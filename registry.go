package restfit

import (
	"sort"
	"strings"
	"sync"
)

type successHandlerEntry struct {
	statuses []int
	fn       SuccessHandler
}

type errorHandlerEntry struct {
	statuses []int // nil means catch-all
	fn       ErrorHandler
}

// Descriptor is the static record of one declared method: verb, path
// template, parameter bindings, handlers and interceptors. Descriptors are
// built through Registry.Register and treated as immutable by the dispatch
// pipeline.
type Descriptor struct {
	Name         string
	Method       string
	PathTemplate string

	bindings        []Binding
	successHandlers []successHandlerEntry
	errorHandlers   []errorHandlerEntry
	interceptors    []Interceptor
	onRetry         RetryNotification
	policy          *Policy
}

// Bindings returns a copy of the declared parameter bindings in declaration
// order.
func (d *Descriptor) Bindings() []Binding {
	out := make([]Binding, len(d.bindings))
	copy(out, d.bindings)
	return out
}

// Path binds the argument at index to the {name} placeholder of the path
// template. The value is URL-encoded; a nil argument leaves the placeholder
// verbatim.
func Path(name string, index int) MethodOption {
	return func(d *Descriptor) {
		d.bindings = append(d.bindings, Binding{Role: RolePath, Name: name, Index: index})
	}
}

// Query binds the argument at index to a query parameter. A nil argument
// adds no entry.
func Query(name string, index int) MethodOption {
	return func(d *Descriptor) {
		d.bindings = append(d.bindings, Binding{Role: RoleQuery, Name: name, Index: index})
	}
}

// Body binds the argument at index as the request payload. When several body
// bindings are declared the last one wins.
func Body(index int) MethodOption {
	return func(d *Descriptor) {
		d.bindings = append(d.bindings, Binding{Role: RoleBody, Index: index})
	}
}

// Header binds the argument at index to a request header. A nil argument
// sets no header; a set header overrides the service-level value for the
// same key.
func Header(name string, index int) MethodOption {
	return func(d *Descriptor) {
		d.bindings = append(d.bindings, Binding{Role: RoleHeader, Name: name, Index: index})
	}
}

// OnSuccess registers a handler for responses whose status is in statuses.
// Without statuses the handler matches any 2xx. Handlers accumulate in
// declaration order; the first match wins.
func OnSuccess(handler SuccessHandler, statuses ...int) MethodOption {
	return func(d *Descriptor) {
		d.successHandlers = append(d.successHandlers, successHandlerEntry{statuses: statuses, fn: handler})
	}
}

// OnError registers a handler for failures whose status is in statuses.
// Without statuses the handler is a catch-all matching any failure,
// including transport failures that produced no response.
func OnError(handler ErrorHandler, statuses ...int) MethodOption {
	return func(d *Descriptor) {
		d.errorHandlers = append(d.errorHandlers, errorHandlerEntry{statuses: statuses, fn: handler})
	}
}

// Intercept appends a method-level response interceptor. Method
// interceptors run after the service-level ones, in declaration order.
func Intercept(interceptor Interceptor) MethodOption {
	return func(d *Descriptor) {
		d.interceptors = append(d.interceptors, interceptor)
	}
}

// OnRetry sets the method's retry notification hook. A later registration
// replaces an earlier one; there is at most one hook per method.
func OnRetry(fn RetryNotification) MethodOption {
	return func(d *Descriptor) {
		d.onRetry = fn
	}
}

// WithMethodPolicy overrides parts of the service resilience policy for this
// method. The override is merged onto the service policy with MergePolicies
// at call time.
func WithMethodPolicy(policy Policy) MethodOption {
	return func(d *Descriptor) {
		p := policy
		d.policy = &p
	}
}

// Registry is the registration table associating method names with their
// descriptors. Lookup is O(1). It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]*Descriptor)}
}

// Register declares a method or adds metadata to an already declared one.
// Registration is cumulative: bindings, handlers and interceptors append,
// while a non-empty httpMethod or pathTemplate updates the stored value.
func (r *Registry) Register(name, httpMethod, pathTemplate string, opts ...MethodOption) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.methods[name]
	if !ok {
		desc = &Descriptor{Name: name}
		r.methods[name] = desc
	}
	if httpMethod != "" {
		desc.Method = strings.ToUpper(httpMethod)
	}
	if pathTemplate != "" {
		desc.PathTemplate = pathTemplate
	}
	for _, opt := range opts {
		opt(desc)
	}
}

// Descriptor returns the descriptor registered under name.
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.methods[name]
	return desc, ok
}

// Methods returns the registered method names, sorted.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
