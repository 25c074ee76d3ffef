package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

func revQuery(rev string) url.Values {
	if rev == "" {
		return nil
	}
	return url.Values{"rev": []string{rev}}
}

// Get fetches the document with the given id. A non-empty rev selects that
// revision.
func (c *Client[T]) Get(ctx context.Context, id, rev string, opts ...RequestOption) (T, error) {
	var doc T
	if id == "" {
		return doc, ErrMissingID
	}
	err := c.doJSON(ctx, http.MethodGet, docPath(id), revQuery(rev), nil, &doc, opts)
	return doc, err
}

// Exists reports whether a document with the given id, and rev when set,
// exists. A 404 is not an error.
func (c *Client[T]) Exists(ctx context.Context, id, rev string, opts ...RequestOption) (bool, error) {
	if id == "" {
		return false, ErrMissingID
	}
	req, err := c.newRequest(ctx, http.MethodHead, docPath(id), revQuery(rev), nil, opts)
	if err != nil {
		return false, err
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, &APIError{Status: resp.StatusCode, Method: req.Method, URL: req.URL.Redacted()}
	}
}

// Create stores doc under an id chosen by CouchDB, or the doc's own _id.
// It is retried only on transport errors, never after a server response.
func (c *Client[T]) Create(ctx context.Context, doc T, opts ...RequestOption) (couch.WriteResult, error) {
	var result couch.WriteResult
	err := c.doJSON(withoutReplay(ctx), http.MethodPost, "", nil, doc, &result, opts)
	return result, err
}

// Update creates or replaces the document with the given id. rev must be the
// current revision when the document exists.
func (c *Client[T]) Update(ctx context.Context, id string, doc T, rev string, opts ...RequestOption) (couch.WriteResult, error) {
	var result couch.WriteResult
	if id == "" {
		return result, ErrMissingID
	}
	err := c.doJSON(ctx, http.MethodPut, docPath(id), revQuery(rev), doc, &result, opts)
	return result, err
}

// Copy duplicates the document with the given id to newID. An empty newID
// gets a random UUID.
func (c *Client[T]) Copy(ctx context.Context, id, newID string, opts ...RequestOption) (couch.WriteResult, error) {
	var result couch.WriteResult
	if id == "" {
		return result, ErrMissingID
	}
	if newID == "" {
		newID = uuid.NewString()
	}
	opts = append([]RequestOption{Header("Destination", newID)}, opts...)
	err := c.doJSON(ctx, "COPY", docPath(id), nil, nil, &result, opts)
	return result, err
}

// Delete removes the document with the given id and revision. Deleting
// without a revision is sent anyway but reported as a warning, since CouchDB
// will answer with a conflict.
func (c *Client[T]) Delete(ctx context.Context, id, rev string, opts ...RequestOption) (couch.WriteResult, error) {
	var result couch.WriteResult
	if id == "" {
		return result, ErrMissingID
	}
	if rev == "" {
		c.warn("no revision specified to delete document %q; this may cause a document conflict error", id)
	}
	err := c.doJSON(ctx, http.MethodDelete, docPath(id), revQuery(rev), nil, &result, opts)
	return result, err
}
