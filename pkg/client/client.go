package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

// Middleware manipulates an outgoing *http.Request before it is executed.
type Middleware func(context.Context, *http.Request) error

type settings struct {
	httpClient     *http.Client
	baseURL        *url.URL
	database       string
	defaultHeaders http.Header
	retryPolicy    RetryPolicy
	maxRetries     int
	logger         Logger
	limiter        *rate.Limiter
	metrics        *Metrics
	middleware     []Middleware
	onWarning      func(string)
}

// Client is a typed CouchDB client for documents of type T in one database.
type Client[T couch.Document] struct {
	settings
}

// New constructs a Client with provided options. A base URL and a database
// are required.
func New[T couch.Document](opts ...ClientOption) (*Client[T], error) {
	c := &Client[T]{settings: settings{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		defaultHeaders: make(http.Header),
		retryPolicy:    DefaultRetryPolicy,
		maxRetries:     DefaultMaxRetries,
	}}
	c.defaultHeaders.Set("Accept", "application/json")
	c.defaultHeaders.Set("User-Agent", "go-couch-client/0.1")

	for _, opt := range opts {
		if err := opt(&c.settings); err != nil {
			return nil, err
		}
	}

	if c.baseURL == nil {
		return nil, ErrInvalidBaseURL
	}
	if c.httpClient == nil {
		return nil, ErrNilHTTPClient
	}
	if c.database == "" {
		return nil, ErrMissingDatabase
	}
	return c, nil
}

// Database returns the name of the database the client operates on.
func (c *Client[T]) Database() string {
	return c.database
}

// BaseURL returns the CouchDB server URL.
func (c *Client[T]) BaseURL() string {
	return c.baseURL.String()
}

func (s *settings) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.logger != nil {
		s.logger.Warnf("couchclient: %s", msg)
	}
	if s.onWarning != nil {
		s.onWarning(msg)
	}
}

// buildURL joins an already escaped path onto the server URL. Paths that do
// not start with "/" are relative to the database.
func (s *settings) buildURL(escapedPath string, query url.Values) string {
	u := *s.baseURL
	base := strings.TrimRight(s.baseURL.EscapedPath(), "/")
	if !strings.HasPrefix(escapedPath, "/") {
		escapedPath = "/" + url.PathEscape(s.database) + "/" + escapedPath
	}
	raw := strings.TrimRight(base+escapedPath, "/")
	if raw == "" {
		raw = "/"
	}
	u.RawPath = raw
	u.Path, _ = url.PathUnescape(raw)
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// docPath escapes a document id for use in a URL path. Design document ids
// keep their "_design/" separator.
func docPath(id string) string {
	if strings.HasPrefix(id, couch.DesignPrefix) {
		return "_design/" + url.PathEscape(strings.TrimPrefix(id, couch.DesignPrefix))
	}
	return url.PathEscape(id)
}

func (s *settings) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any, opts []RequestOption) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(body); err != nil {
			return nil, fmt.Errorf("couchclient: encode request body: %w", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.buildURL(endpoint, query), reader)
	if err != nil {
		return nil, err
	}

	for key, values := range s.defaultHeaders {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, mw := range s.middleware {
		if err := mw(ctx, req); err != nil {
			return nil, fmt.Errorf("couchclient: apply middleware for %s: %w", req.URL, err)
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// send executes req with rate limiting, retries and metrics. The response is
// returned whatever its status.
func (s *settings) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if s.logger != nil {
		s.logger.Debugf("couchclient: %s %s", req.Method, req.URL)
	}

	start := time.Now()
	resp, err := s.retry(ctx, req, func() (*http.Response, error) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return s.httpClient.Do(req)
	})
	s.metrics.observe(req.Method, resp, time.Since(start))
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("couchclient: %s %s: %v", req.Method, req.URL, err)
		}
		return nil, err
	}
	return resp, nil
}

// do is send with non-2xx responses turned into *APIError.
func (s *settings) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr, err := readAPIError(req, resp)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Errorf("couchclient: request failed status=%d method=%s url=%s", resp.StatusCode, req.Method, req.URL)
	}
	return nil, apiErr
}

func (s *settings) doJSON(ctx context.Context, method, endpoint string, query url.Values, body any, out any, opts []RequestOption) error {
	req, err := s.newRequest(ctx, method, endpoint, query, body, opts)
	if err != nil {
		return err
	}

	resp, err := s.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("couchclient: decode response from %s %s: %w", method, req.URL, err)
	}
	return nil
}

func cloneValues(values url.Values) url.Values {
	cp := make(url.Values, len(values))
	for key, v := range values {
		dst := make([]string, len(v))
		copy(dst, v)
		cp[key] = dst
	}
	return cp
}
