package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrInvalidBaseURL is returned when a base URL option is invalid.
	ErrInvalidBaseURL = errors.New("couchclient: invalid base URL")
	// ErrNilHTTPClient indicates a nil HTTP client was provided.
	ErrNilHTTPClient = errors.New("couchclient: http client cannot be nil")
	// ErrMissingDatabase is returned when no database name was configured.
	ErrMissingDatabase = errors.New("couchclient: database name is required")
	// ErrMissingID is returned when an operation needs a document id.
	ErrMissingID = errors.New("couchclient: document id is required")
	// ErrMissingView is returned when a view query lacks a design or view name.
	ErrMissingView = errors.New("couchclient: design document and view names are required")
)

// APIError is a non-2xx CouchDB response. Type and Reason come from the
// {"error": ..., "reason": ...} body CouchDB sends with failures.
type APIError struct {
	Status int    `json:"-"`
	Method string `json:"-"`
	URL    string `json:"-"`
	Type   string `json:"error"`
	Reason string `json:"reason"`
	Raw    []byte `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := fmt.Sprintf("couchclient: %s %s: status %d", e.Method, e.URL, e.Status)
	switch {
	case e.Type != "" && e.Reason != "":
		return fmt.Sprintf("%s %s (%s)", prefix, e.Type, e.Reason)
	case e.Type != "":
		return fmt.Sprintf("%s %s", prefix, e.Type)
	case e.Reason != "":
		return fmt.Sprintf("%s %s", prefix, e.Reason)
	default:
		return prefix
	}
}

// Temporary reports whether the error may be retried.
func (e *APIError) Temporary() bool {
	if e == nil {
		return false
	}
	return e.Status >= 500 && e.Status < 600
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ErrorType returns CouchDB's short error type, e.g. "conflict", or "" when
// err did not come from CouchDB.
func ErrorType(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ""
}

// IsNotFound reports whether err is a CouchDB 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports whether err is a CouchDB 409 document update conflict.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

func readAPIError(req *http.Request, resp *http.Response) (*APIError, error) {
	apiErr := &APIError{Status: resp.StatusCode, Method: req.Method, URL: req.URL.Redacted()}
	if req.Method == http.MethodHead {
		return apiErr, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	apiErr.Raw = data
	if err := json.Unmarshal(data, apiErr); err != nil {
		// Fallback to plain message.
		apiErr.Reason = string(data)
	}
	return apiErr, nil
}
