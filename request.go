package restfit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// buildRequest resolves a method's declared metadata and the caller's
// positional arguments into a concrete request. Static service headers and
// the resolved authorization are merged in first; binding-derived headers
// take precedence on key collision.
func (s *Service) buildRequest(ctx context.Context, desc *Descriptor, args []any) (*RequestContext, error) {
	rc := &RequestContext{
		Method: desc.Method,
		Query:  url.Values{},
		Header: http.Header{},
	}

	for key, values := range s.headers {
		for _, value := range values {
			rc.Header.Add(key, value)
		}
	}

	// Authorization is resolved once per call, before bindings apply. An
	// empty credential adds no header and never fails the call.
	auth, err := s.resolveAuthorization(ctx)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeRequest,
			Message: "resolving authorization failed",
			Method:  desc.Name,
			Cause:   err,
		}
	}
	if auth != "" {
		rc.Header.Set("Authorization", auth)
	}

	path := desc.PathTemplate
	contentTypeHint := ""

	for _, b := range desc.bindings {
		arg, defined := argAt(args, b.Index)
		if !defined {
			// An unresolved path placeholder stays verbatim in the URL;
			// query and header entries are simply omitted.
			continue
		}
		switch b.Role {
		case RolePath:
			path = strings.ReplaceAll(path, "{"+b.Name+"}", url.PathEscape(stringify(arg)))
		case RoleQuery:
			rc.Query.Set(b.Name, stringify(arg))
		case RoleHeader:
			rc.Header.Set(b.Name, stringify(arg))
		case RoleBody:
			body, hint, err := encodeBody(arg)
			if err != nil {
				return nil, &ClientError{
					Type:    ErrorTypeRequest,
					Message: fmt.Sprintf("encoding body argument %d failed", b.Index),
					Method:  desc.Name,
					Cause:   err,
				}
			}
			rc.Body = body
			contentTypeHint = hint
		}
	}

	if rc.Body != nil && contentTypeHint != "" && rc.Header.Get("Content-Type") == "" {
		rc.Header.Set("Content-Type", contentTypeHint)
	}

	rc.URL = joinURL(s.baseURL, path)
	return rc, nil
}

// resolveAuthorization produces the Authorization header value: the static
// token or the provider's result, rendered under the configured scheme.
func (s *Service) resolveAuthorization(ctx context.Context) (string, error) {
	token := s.authToken
	if s.authProvider != nil {
		resolved, err := s.authProvider(ctx)
		if err != nil {
			return "", err
		}
		token = resolved
	}
	if token == "" {
		return "", nil
	}
	if s.authScheme == AuthSchemeCustom {
		return token, nil
	}
	return string(s.authScheme) + " " + token, nil
}

// argAt reports whether the argument at index is defined. Out-of-range and
// nil arguments are undefined.
func argAt(args []any, index int) (any, bool) {
	if index < 0 || index >= len(args) {
		return nil, false
	}
	if args[index] == nil {
		return nil, false
	}
	return args[index], true
}

// stringify renders a binding argument for use in a URL, query or header.
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case []byte:
		return string(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// encodeBody turns a body argument into the request payload. Raw bytes and
// strings pass through untouched; anything else is JSON-encoded and hints
// an application/json content type.
func encodeBody(v any) (body []byte, contentTypeHint string, err error) {
	switch value := v.(type) {
	case []byte:
		return value, "", nil
	case string:
		return []byte(value), "", nil
	case json.RawMessage:
		return value, "application/json", nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
