package restfit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPTransport is the default Transport, backed by a net/http client.
// Connection pooling, TLS and redirects are the client's concern.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps the given client; a nil client gets a 30s timeout
// default.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{client: client}
}

// Send implements Transport. Any HTTP exchange that produced a response
// returns it regardless of status; an error is returned only when no
// response was received.
func (t *HTTPTransport) Send(ctx context.Context, rc *RequestContext) (*Response, error) {
	target := rc.URL
	if encoded := rc.Query.Encode(); encoded != "" {
		if strings.Contains(target, "?") {
			target += "&" + encoded
		} else {
			target += "?" + encoded
		}
	}

	var bodyReader io.Reader
	if rc.Body != nil {
		bodyReader = bytes.NewReader(rc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, rc.Method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	for key, values := range rc.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Data:       data,
		Request:    rc,
	}, nil
}
