package restfit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kyree-henry/RestFit/internal/backoff"
)

// executeWithRetry runs the bounded attempt loop for one logical call. It
// returns the last response (nil when no response was received) and the last
// failure, nil on success. The circuit breaker is not consulted here; it
// wraps this loop from the outside.
func (s *Service) executeWithRetry(ctx context.Context, desc *Descriptor, rc *RequestContext, policy *RetryPolicy, requestID string) (*Response, *ClientError) {
	maxRetries := 0
	if policy != nil && !policy.Disabled {
		maxRetries = policy.retries()
	}

	start := time.Now()
	for attempt := 0; ; attempt++ {
		resp, err := s.transport.Send(ctx, rc)
		failure := failureFromOutcome(resp, err)
		if failure == nil {
			return resp, nil
		}
		failure.Method = desc.Name
		failure.Verb = rc.Method
		failure.URL = rc.URL
		failure.Attempt = attempt
		failure.Timestamp = time.Now()
		failure.Duration = time.Since(start)

		if attempt >= maxRetries || !shouldRetry(policy, failure, attempt) {
			return resp, failure
		}

		if desc.onRetry != nil {
			desc.onRetry(attempt+1, failure)
		}
		if s.metrics != nil {
			s.metrics.RecordRetry(rc.Method, desc.Name, attempt+1)
		}
		if s.debug != nil && s.debug.Enabled && s.debug.LogRetries && s.logger != nil {
			s.logger.Info("Scheduling retry", "requestID", requestID, "method", desc.Name, "retry", attempt+1, "maxRetries", maxRetries, "error", failure.Error())
		}

		delay := retryDelay(policy, attempt, failure)
		if !sleepContext(ctx, delay) {
			// The invocation was abandoned during the backoff wait; surface
			// the last attempt's failure.
			return resp, failure
		}
	}
}

// shouldRetry applies the custom predicate when supplied, otherwise the
// default rule: retry transport failures without a response unless network
// retry is explicitly off, and responses whose status is in the retryable
// set.
func shouldRetry(policy *RetryPolicy, failure *ClientError, retryCount int) bool {
	if policy == nil || policy.Disabled {
		return false
	}
	if policy.ShouldRetry != nil {
		return policy.ShouldRetry(failure, retryCount)
	}
	if failure.Response == nil {
		return policy.retryOnNetworkError()
	}
	return containsStatus(policy.retryableStatuses(), failure.Response.StatusCode)
}

// retryDelay computes the wait before the next attempt: the custom delay
// function when supplied, min(base*multiplier^n, max) under exponential
// backoff, or a constant base delay.
func retryDelay(policy *RetryPolicy, retryCount int, failure *ClientError) time.Duration {
	if policy.Delay != nil {
		return policy.Delay(retryCount, failure)
	}
	calc := backoff.Constant()
	if policy.exponential() {
		calc = backoff.Exponential()
	}
	return calc.Calculate(retryCount, policy.baseDelay(), policy.maxDelay(), policy.multiplier(), policy.jitterFraction())
}

// sleepContext waits for d, returning false if ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// failureFromOutcome classifies one attempt. A transport error becomes a
// Network (or Timeout) failure with no response; a non-2xx response becomes
// a Server or Client failure carrying it. A 2xx response is a success.
func failureFromOutcome(resp *Response, err error) *ClientError {
	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			return clientErr
		}
		errType := ErrorTypeNetwork
		code := codeForNetworkError(err)
		if code == "timeout" {
			errType = ErrorTypeTimeout
		}
		return &ClientError{
			Type:    errType,
			Message: err.Error(),
			Code:    code,
			Cause:   err,
		}
	}
	if resp.IsSuccess() {
		return nil
	}
	errType := ErrorTypeClient
	if resp.StatusCode >= 500 {
		errType = ErrorTypeServer
	}
	return &ClientError{
		Type:       errType,
		Message:    fmt.Sprintf("server returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		StatusCode: resp.StatusCode,
		Response:   resp,
	}
}

// codeForNetworkError derives the machine-readable code for a transport
// failure without a response.
func codeForNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network"
}
