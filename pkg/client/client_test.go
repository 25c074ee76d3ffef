package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

type post struct {
	couch.Doc
	Title string `json:"title"`
	Views int    `json:"views"`
}

type recordingLogger struct {
	mu     sync.Mutex
	debug  []string
	warn   []string
	errors []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warn = append(l.warn, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client[post] {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []ClientOption{
		WithBaseURL(server.URL),
		WithDatabase("blog"),
		WithHTTPClient(server.Client()),
		WithRetryPolicy(nil),
	}
	c, err := New[post](append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNewValidation(t *testing.T) {
	_, err := New[post](WithDatabase("blog"))
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = New[post](WithBaseURL("/relative"), WithDatabase("blog"))
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = New[post](WithBaseURL("http://localhost:5984"))
	assert.ErrorIs(t, err, ErrMissingDatabase)

	_, err = New[post](WithBaseURL("http://localhost:5984"), WithDatabase(""))
	assert.ErrorIs(t, err, ErrMissingDatabase)

	_, err = New[post](WithBaseURL("http://localhost:5984"), WithDatabase("blog"), WithHTTPClient(nil))
	assert.ErrorIs(t, err, ErrNilHTTPClient)

	c, err := New[post](WithBaseURL("http://localhost:5984"), WithDatabase("blog"))
	require.NoError(t, err)
	assert.Equal(t, "blog", c.Database())
	assert.Equal(t, "http://localhost:5984", c.BaseURL())
}

func TestBuildURL(t *testing.T) {
	c, err := New[post](WithBaseURL("http://localhost:5984/couch/"), WithDatabase("my/db"))
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"database", "", "http://localhost:5984/couch/my%2Fdb"},
		{"document", docPath("a/b"), "http://localhost:5984/couch/my%2Fdb/a%2Fb"},
		{"design document", docPath("_design/by title"), "http://localhost:5984/couch/my%2Fdb/_design/by%20title"},
		{"endpoint", "_all_docs", "http://localhost:5984/couch/my%2Fdb/_all_docs"},
		{"server root", "/", "http://localhost:5984/couch"},
		{"server endpoint", "/_up", "http://localhost:5984/couch/_up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.buildURL(tt.path, nil))
		})
	}
}

func TestRequestHeadersAndMiddleware(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "yes", r.Header.Get("X-Default"))
		assert.Equal(t, "mw", r.Header.Get("X-Middleware"))
		assert.Equal(t, "per-request", r.Header.Get("X-Request"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		writeJSON(t, w, http.StatusOK, map[string]any{"_id": "p1", "title": "hello"})
	},
		WithDefaultHeader("X-Default", "yes"),
		WithBasicAuth("admin", "secret"),
		WithMiddleware(func(_ context.Context, r *http.Request) error {
			r.Header.Set("X-Middleware", "mw")
			return nil
		}),
	)

	doc, err := c.Get(context.Background(), "p1", "", Header("X-Request", "per-request"))
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Title)
}

func TestMiddlewareError(t *testing.T) {
	boom := fmt.Errorf("no token")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	}, WithMiddleware(func(context.Context, *http.Request) error { return boom }))

	_, err := c.Get(context.Background(), "p1", "")
	assert.ErrorIs(t, err, boom)
}

func TestAPIError(t *testing.T) {
	logger := &recordingLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "not_found", "reason": "missing"})
	}, WithLogger(logger))

	_, err := c.Get(context.Background(), "nope", "")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", ErrorType(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.False(t, apiErr.Temporary())
	assert.Contains(t, err.Error(), "not_found (missing)")
	assert.Contains(t, err.Error(), "/blog/nope")

	assert.NotEmpty(t, logger.debug)
	assert.NotEmpty(t, logger.errors)
}

func TestAPIErrorPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := c.Get(context.Background(), "p1", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream down", apiErr.Reason)
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, 0, StatusCode(fmt.Errorf("plain")))
	assert.Equal(t, "", ErrorType(nil))
}

func TestRetry(t *testing.T) {
	var calls int
	var bodies []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		body := decodeBody(t, r)
		bodies = append(bodies, body["title"].(string))
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, http.StatusCreated, couch.WriteResult{ID: "p1", Rev: "1-a", OK: true})
	}, WithRetryPolicy(RetryPolicyFunc(func(resp *http.Response, err error) (bool, time.Duration) {
		return err != nil || resp.StatusCode >= 500, time.Millisecond
	})))

	res, err := c.Update(context.Background(), "p1", post{Title: "retry me"}, "")
	require.NoError(t, err)
	assert.Equal(t, "p1", res.ID)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"retry me", "retry me", "retry me"}, bodies)
}

func TestCreateNotRetriedAfterResponse(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "unknown_error", "reason": "timeout"})
	}, WithRetryPolicy(DefaultRetryPolicy))

	_, err := c.Create(context.Background(), post{Title: "once"})
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Equal(t, 1, calls)
}

func TestCreateRetriedOnTransportError(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		writeJSON(t, w, http.StatusCreated, couch.WriteResult{ID: "p1", Rev: "1-a", OK: true})
	}, WithRetryPolicy(RetryPolicyFunc(func(resp *http.Response, err error) (bool, time.Duration) {
		return err != nil, time.Millisecond
	})))

	res, err := c.Create(context.Background(), post{Title: "again"})
	require.NoError(t, err)
	assert.Equal(t, "p1", res.ID)
	assert.Equal(t, 2, calls)
}

func TestRetryExhausted(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	},
		WithRetryPolicy(RetryPolicyFunc(func(*http.Response, error) (bool, time.Duration) {
			return true, time.Millisecond
		})),
		WithMaxRetries(2),
	)

	_, err := c.Get(context.Background(), "p1", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetryPolicy(RetryPolicyFunc(func(*http.Response, error) (bool, time.Duration) {
		return true, time.Hour
	})))

	_, err := c.Get(ctx, "p1", "")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryPolicy(t *testing.T) {
	retry, delay := DefaultRetryPolicy.ShouldRetry(nil, fmt.Errorf("dial"))
	assert.True(t, retry)
	assert.Positive(t, delay)

	retry, _ = DefaultRetryPolicy.ShouldRetry(&http.Response{StatusCode: 500}, nil)
	assert.True(t, retry)

	retry, _ = DefaultRetryPolicy.ShouldRetry(&http.Response{StatusCode: 409}, nil)
	assert.False(t, retry)
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"_id": "p1"})
	}, WithRateLimit(0.001, 1))

	_, err := c.Get(context.Background(), "p1", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "p1", "")
	assert.Error(t, err)
}

func TestWithTimeoutDoesNotMutateCallerClient(t *testing.T) {
	hc := &http.Client{}
	_, err := New[post](WithBaseURL("http://localhost:5984"), WithDatabase("blog"), WithHTTPClient(hc), WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Zero(t, hc.Timeout)
}
