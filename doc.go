// Package restfit builds typed remote-procedure clients from declaratively
// registered service definitions. A method is registered once with an HTTP
// verb and a path template, its parameters with their role (path segment,
// query entry, body, header), and the runtime synthesizes a callable that
// issues the request and resolves the result through:
//
//   - Request construction (path substitution, query/header bindings,
//     static headers, resolved authorization)
//   - A resilience policy engine: retries with exponential backoff and a
//     circuit breaker (closed / open / half-open) shared per service
//   - An ordered response interceptor chain, run on success and failure
//   - Status-keyed success/error handler lookup for the final value
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - An explicit registration table instead of reflection or codegen
//   - Safe concurrent use of a single *Service instance
//   - Extensibility via a pluggable Transport, interceptors and metrics
//
// Typical usage:
//
//	reg := restfit.NewRegistry()
//	reg.Register("GetUser", http.MethodGet, "/users/{id}",
//	    restfit.Path("id", 0),
//	    restfit.OnSuccess(restfit.DecodeJSON[User](), 200),
//	    restfit.OnError(notFound, 404),
//	)
//
//	svc := restfit.New(reg,
//	    restfit.WithBaseURL("https://api.example.com"),
//	    restfit.WithAuthorization(restfit.AuthSchemeBearer, token),
//	    restfit.WithPolicy(policy),
//	)
//	user, err := svc.Invoke(ctx, "GetUser", 42)
//
// The transport is an external collaborator: restfit issues one logical
// send per attempt and never manages connections, TLS or redirects itself.
// Provide a Logger (e.g. via WithSimpleLogger) and enable debug flags
// selectively (WithDebug / WithDebugConfig) for insight without noise.
package restfit
