package client

import (
	"context"
	"net/http"
	"time"
)

// DefaultMaxRetries bounds retries when no WithMaxRetries option is given.
const DefaultMaxRetries = 3

// RetryPolicy decides whether a request should be retried.
type RetryPolicy interface {
	ShouldRetry(resp *http.Response, err error) (bool, time.Duration)
}

// RetryPolicyFunc adapts a function to the RetryPolicy interface.
type RetryPolicyFunc func(resp *http.Response, err error) (bool, time.Duration)

// ShouldRetry implements the RetryPolicy interface.
func (f RetryPolicyFunc) ShouldRetry(resp *http.Response, err error) (bool, time.Duration) {
	return f(resp, err)
}

// DefaultRetryPolicy retries on network errors and server errors. The delay
// grows linearly with the attempt number.
var DefaultRetryPolicy RetryPolicy = RetryPolicyFunc(func(resp *http.Response, err error) (bool, time.Duration) {
	switch {
	case err != nil:
		return true, 500 * time.Millisecond
	case resp.StatusCode >= 500:
		return true, 500 * time.Millisecond
	default:
		return false, 0
	}
})

func (s *settings) retry(ctx context.Context, req *http.Request, fn func() (*http.Response, error)) (*http.Response, error) {
	policy := s.retryPolicy
	if policy == nil {
		return fn()
	}
	var attempt int
	for {
		resp, err := fn()
		if attempt >= s.maxRetries || ctx.Err() != nil {
			return resp, err
		}
		if err == nil && !replayable(req) {
			return resp, err
		}
		retry, delay := policy.ShouldRetry(resp, err)
		if !retry {
			return resp, err
		}
		if req.Body != nil && req.GetBody == nil {
			return resp, err
		}
		if resp != nil {
			resp.Body.Close()
		}
		attempt++
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay * time.Duration(attempt)):
		}
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}
	}
}

type noReplayKey struct{}

// withoutReplay marks a request that must not be sent again once the server
// has answered it. A POST that lets CouchDB pick the id would store a second
// copy if the first write succeeded behind a 5xx.
func withoutReplay(ctx context.Context) context.Context {
	return context.WithValue(ctx, noReplayKey{}, true)
}

func replayable(req *http.Request) bool {
	noReplay, _ := req.Context().Value(noReplayKey{}).(bool)
	return !noReplay
}
