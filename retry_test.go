package restfit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// stubTransport sequences canned attempt outcomes and counts calls.
type stubTransport struct {
	calls int
	fn    func(call int, rc *RequestContext) (*Response, error)
}

func (st *stubTransport) Send(ctx context.Context, rc *RequestContext) (*Response, error) {
	call := st.calls
	st.calls++
	return st.fn(call, rc)
}

func newRetryHarness(transport *stubTransport) (*Service, *Descriptor) {
	reg := NewRegistry()
	reg.Register("GetUser", http.MethodGet, "/users/{id}", Path("id", 0))
	svc := New(reg, WithTransport(transport))
	desc, _ := reg.Descriptor("GetUser")
	return svc, desc
}

func fastRetry(retries int) *RetryPolicy {
	return &RetryPolicy{
		Retries:   Int(retries),
		BaseDelay: Duration(time.Millisecond),
		MaxDelay:  Duration(time.Millisecond),
	}
}

func TestExecuteWithRetryAttemptBound(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		return &Response{StatusCode: 503}, nil
	}}
	svc, desc := newRetryHarness(transport)

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	resp, failure := svc.executeWithRetry(context.Background(), desc, rc, fastRetry(3), "")

	if transport.calls != 4 {
		t.Errorf("Expected retries+1 = 4 attempts, got %d", transport.calls)
	}
	if failure == nil {
		t.Fatal("Expected a failure after exhausting attempts")
	}
	if failure.Type != ErrorTypeServer {
		t.Errorf("Expected Server error type, got %v", failure.Type)
	}
	if failure.Attempt != 3 {
		t.Errorf("Expected last attempt index 3, got %d", failure.Attempt)
	}
	if resp == nil || resp.StatusCode != 503 {
		t.Error("Expected the last response to be surfaced with the failure")
	}
}

func TestExecuteWithRetrySucceedsMidway(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		if call < 2 {
			return &Response{StatusCode: 503}, nil
		}
		return &Response{StatusCode: 200, Data: []byte("ok")}, nil
	}}
	svc, desc := newRetryHarness(transport)

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	resp, failure := svc.executeWithRetry(context.Background(), desc, rc, fastRetry(3), "")

	if failure != nil {
		t.Fatalf("Expected success, got %v", failure)
	}
	if transport.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", transport.calls)
	}
	if string(resp.Data) != "ok" {
		t.Errorf("Unexpected response data: %s", resp.Data)
	}
}

func TestExecuteWithRetryNonRetryableStatus(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		return &Response{StatusCode: 404}, nil
	}}
	svc, desc := newRetryHarness(transport)

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	_, failure := svc.executeWithRetry(context.Background(), desc, rc, fastRetry(3), "")

	if transport.calls != 1 {
		t.Errorf("Expected a single attempt for a non-retryable status, got %d", transport.calls)
	}
	if failure == nil || failure.Type != ErrorTypeClient {
		t.Errorf("Expected Client error, got %v", failure)
	}
}

func TestExecuteWithRetryNetworkErrorRetried(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		return nil, errors.New("connection refused")
	}}
	svc, desc := newRetryHarness(transport)

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	resp, failure := svc.executeWithRetry(context.Background(), desc, rc, fastRetry(2), "")

	if transport.calls != 3 {
		t.Errorf("Expected 3 attempts for a network error, got %d", transport.calls)
	}
	if resp != nil {
		t.Error("Expected no response for a pure transport failure")
	}
	if failure == nil || failure.Type != ErrorTypeNetwork {
		t.Errorf("Expected Network error, got %v", failure)
	}
	if failure.Code != "network" {
		t.Errorf("Expected code 'network', got %q", failure.Code)
	}
}

func TestExecuteWithRetryNetworkRetryDisabled(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		return nil, errors.New("connection refused")
	}}
	svc, desc := newRetryHarness(transport)

	policy := fastRetry(3)
	policy.RetryOnNetworkError = Bool(false)

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	svc.executeWithRetry(context.Background(), desc, rc, policy, "")

	if transport.calls != 1 {
		t.Errorf("Expected no retry with network retry off, got %d attempts", transport.calls)
	}
}

func TestExecuteWithRetryCustomPredicateAuthoritative(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		return &Response{StatusCode: 404}, nil
	}}
	svc, desc := newRetryHarness(transport)

	var seenCounts []int
	policy := fastRetry(3)
	policy.ShouldRetry = func(err *ClientError, retryCount int) bool {
		seenCounts = append(seenCounts, retryCount)
		return retryCount < 1
	}

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	svc.executeWithRetry(context.Background(), desc, rc, policy, "")

	// 404 is not in the default retryable set; the predicate overrides that
	// and allows exactly one retry.
	if transport.calls != 2 {
		t.Errorf("Expected 2 attempts under the custom predicate, got %d", transport.calls)
	}
	if len(seenCounts) != 2 || seenCounts[0] != 0 || seenCounts[1] != 1 {
		t.Errorf("Expected zero-based retry counts [0 1], got %v", seenCounts)
	}
}

func TestExecuteWithRetryDisabledPolicy(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		return &Response{StatusCode: 503}, nil
	}}
	svc, desc := newRetryHarness(transport)

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	svc.executeWithRetry(context.Background(), desc, rc, &RetryPolicy{Disabled: true}, "")

	if transport.calls != 1 {
		t.Errorf("Expected a single attempt with retry disabled, got %d", transport.calls)
	}
}

func TestExecuteWithRetryNotificationHook(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		if call < 2 {
			return &Response{StatusCode: 503}, nil
		}
		return &Response{StatusCode: 200}, nil
	}}

	var notified []int
	reg := NewRegistry()
	reg.Register("GetUser", http.MethodGet, "/users/{id}",
		Path("id", 0),
		OnRetry(func(retryCount int, err error) {
			notified = append(notified, retryCount)
			if err == nil {
				t.Error("Expected the triggering failure in the notification")
			}
		}),
	)
	svc := New(reg, WithTransport(transport))
	desc, _ := reg.Descriptor("GetUser")

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	svc.executeWithRetry(context.Background(), desc, rc, fastRetry(3), "")

	// One-based, fired only when a retry actually follows.
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Errorf("Expected notifications [1 2], got %v", notified)
	}
}

func TestExecuteWithRetryCustomDelay(t *testing.T) {
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		return &Response{StatusCode: 503}, nil
	}}
	svc, desc := newRetryHarness(transport)

	var delays []int
	policy := fastRetry(2)
	policy.Delay = func(retryCount int, err *ClientError) time.Duration {
		delays = append(delays, retryCount)
		return 0
	}

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	svc.executeWithRetry(context.Background(), desc, rc, policy, "")

	if len(delays) != 2 || delays[0] != 0 || delays[1] != 1 {
		t.Errorf("Expected delay callback for retries [0 1], got %v", delays)
	}
}

func TestExecuteWithRetryContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transport := &stubTransport{fn: func(call int, rc *RequestContext) (*Response, error) {
		cancel()
		return &Response{StatusCode: 503}, nil
	}}
	svc, desc := newRetryHarness(transport)

	policy := fastRetry(5)
	policy.BaseDelay = Duration(time.Hour)
	policy.MaxDelay = Duration(time.Hour)

	rc := &RequestContext{Method: http.MethodGet, URL: "/users/1"}
	start := time.Now()
	_, failure := svc.executeWithRetry(ctx, desc, rc, policy, "")

	if time.Since(start) > 5*time.Second {
		t.Fatal("Expected cancellation to cut the backoff wait short")
	}
	if transport.calls != 1 {
		t.Errorf("Expected the abandoned call to stop after 1 attempt, got %d", transport.calls)
	}
	if failure == nil || failure.Type != ErrorTypeServer {
		t.Errorf("Expected the last attempt's failure to surface, got %v", failure)
	}
}

func TestFailureFromOutcomeClassification(t *testing.T) {
	t.Run("2xx is success", func(t *testing.T) {
		if failureFromOutcome(&Response{StatusCode: 204}, nil) != nil {
			t.Error("Expected 204 to classify as success")
		}
	})

	t.Run("5xx is server error", func(t *testing.T) {
		failure := failureFromOutcome(&Response{StatusCode: 502}, nil)
		if failure == nil || failure.Type != ErrorTypeServer || failure.StatusCode != 502 {
			t.Errorf("Expected Server error for 502, got %v", failure)
		}
	})

	t.Run("4xx is client error", func(t *testing.T) {
		failure := failureFromOutcome(&Response{StatusCode: 400}, nil)
		if failure == nil || failure.Type != ErrorTypeClient {
			t.Errorf("Expected Client error for 400, got %v", failure)
		}
	})

	t.Run("deadline is timeout", func(t *testing.T) {
		failure := failureFromOutcome(nil, context.DeadlineExceeded)
		if failure == nil || failure.Type != ErrorTypeTimeout || failure.Code != "timeout" {
			t.Errorf("Expected Timeout error, got %v", failure)
		}
	})

	t.Run("client error passes through", func(t *testing.T) {
		original := &ClientError{Type: ErrorTypeRequest, Message: "bad"}
		failure := failureFromOutcome(nil, original)
		if failure != original {
			t.Error("Expected a ClientError cause to pass through unchanged")
		}
	})
}

func TestCodeForNetworkError(t *testing.T) {
	if got := codeForNetworkError(context.Canceled); got != "canceled" {
		t.Errorf("Expected 'canceled', got %q", got)
	}
	if got := codeForNetworkError(errors.New("broken pipe")); got != "network" {
		t.Errorf("Expected 'network', got %q", got)
	}
}
