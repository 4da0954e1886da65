package restfit

import (
	"encoding/json"
	"net/http"
)

// Response wraps one settled exchange: the status line, headers, raw payload
// and the request that produced it. StatusCode 0 is reserved to mean "no
// response was received" (network failure); for such synthetic responses
// Status carries the transport error code and Data the failure message.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Data       []byte
	Request    *RequestContext
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// SyntheticSuccess fabricates a 200 response carrying the given payload.
// Interceptors use it to promote a failure into a success.
func SyntheticSuccess(data []byte) *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Status:     "200 " + http.StatusText(http.StatusOK),
		Header:     http.Header{},
		Data:       data,
	}
}

// SyntheticFailure fabricates the status-0 response standing in for a
// transport failure that produced no real response.
func SyntheticFailure(message, code string) *Response {
	return &Response{
		StatusCode: 0,
		Status:     code,
		Header:     http.Header{},
		Data:       []byte(message),
	}
}

// DecodeJSON adapts a typed JSON decode into a SuccessHandler. An empty
// payload yields the zero value.
func DecodeJSON[T any]() SuccessHandler {
	return func(data []byte) (any, error) {
		var v T
		if len(data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
