package client

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/robert-malhotra/go-couch-client/auth"
)

// Logger represents the minimal logging interface used by the client.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ClientOption configures a Client during construction.
type ClientOption func(*settings) error

// RequestOption configures an outgoing HTTP request at call time.
type RequestOption func(*http.Request) error

// WithBaseURL sets the CouchDB server URL, e.g. http://localhost:5984. It
// should not include the database name.
func WithBaseURL(raw string) ClientOption {
	return func(s *settings) error {
		if raw == "" {
			return ErrInvalidBaseURL
		}
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		if !u.IsAbs() {
			return ErrInvalidBaseURL
		}
		s.baseURL = u
		return nil
	}
}

// WithDatabase selects the database every document operation targets.
func WithDatabase(name string) ClientOption {
	return func(s *settings) error {
		if name == "" {
			return ErrMissingDatabase
		}
		s.database = name
		return nil
	}
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(s *settings) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}
		s.httpClient = httpClient
		return nil
	}
}

// WithDefaultHeader registers a header applied to every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(s *settings) error {
		if key == "" {
			return nil
		}
		if s.defaultHeaders == nil {
			s.defaultHeaders = make(http.Header)
		}
		s.defaultHeaders.Add(key, value)
		return nil
	}
}

// WithBasicAuth authenticates every request. Credentials are ignored unless
// both are set.
func WithBasicAuth(username, password string) ClientOption {
	return func(s *settings) error {
		if username == "" || password == "" {
			return nil
		}
		if s.httpClient == nil {
			return ErrNilHTTPClient
		}
		cp := *s.httpClient
		cp.Transport = &auth.BasicAuthTransport{
			Username: username,
			Password: password,
			Base:     s.httpClient.Transport,
		}
		s.httpClient = &cp
		return nil
	}
}

// WithRetryPolicy configures the retry behavior for retriable requests. A nil
// policy disables retries.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(s *settings) error {
		s.retryPolicy = policy
		return nil
	}
}

// WithMaxRetries bounds the number of retries per request.
func WithMaxRetries(n int) ClientOption {
	return func(s *settings) error {
		if n < 0 {
			n = 0
		}
		s.maxRetries = n
		return nil
	}
}

// WithLogger registers a logger used for request lifecycle events.
func WithLogger(logger Logger) ClientOption {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithTimeout sets a per-request timeout on the underlying http.Client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(s *settings) error {
		if timeout <= 0 {
			return nil
		}
		if s.httpClient == nil {
			s.httpClient = &http.Client{}
		}
		cp := *s.httpClient
		cp.Timeout = timeout
		s.httpClient = &cp
		return nil
	}
}

// WithRateLimit caps outgoing requests at perSecond with the given burst. A
// non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(s *settings) error {
		if perSecond <= 0 {
			s.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) ClientOption {
	return func(s *settings) error {
		s.metrics = m
		return nil
	}
}

// WithMiddleware registers one or more request-middleware functions.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(s *settings) error {
		s.middleware = append(s.middleware, mw...)
		return nil
	}
}

// WithWarningHandler is called with every warning returned by CouchDB or
// detected by the client, such as a delete without a revision.
func WithWarningHandler(fn func(string)) ClientOption {
	return func(s *settings) error {
		s.onWarning = fn
		return nil
	}
}

// Header returns a RequestOption that sets a header value.
func Header(key, value string) RequestOption {
	return func(req *http.Request) error {
		if key == "" {
			return nil
		}
		req.Header.Set(key, value)
		return nil
	}
}

// AddHeader returns a RequestOption that appends to a header value.
func AddHeader(key, value string) RequestOption {
	return func(req *http.Request) error {
		if key == "" {
			return nil
		}
		req.Header.Add(key, value)
		return nil
	}
}
