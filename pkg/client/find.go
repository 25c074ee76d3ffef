package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
	"github.com/robert-malhotra/go-couch-client/pkg/mango"
)

// countPageSize is the _find page size used when counting matches.
const countPageSize = 1000

// Find returns the documents matching a single-comparison predicate.
func (c *Client[T]) Find(ctx context.Context, p mango.Predicate[T], opts *couch.FindOptions, reqOpts ...RequestOption) ([]T, error) {
	sel, err := mango.Translate(p)
	if err != nil {
		return nil, err
	}
	return c.FindBySelector(ctx, sel, opts, reqOpts...)
}

// FindBySelector returns the documents matching a selector.
func (c *Client[T]) FindBySelector(ctx context.Context, sel mango.Selector, opts *couch.FindOptions, reqOpts ...RequestOption) ([]T, error) {
	return c.FindByObject(ctx, sel, opts, reqOpts...)
}

// FindByObject returns the documents matching any JSON-encodable selector,
// e.g. a map using operators the predicate API does not cover.
func (c *Client[T]) FindByObject(ctx context.Context, selector any, opts *couch.FindOptions, reqOpts ...RequestOption) ([]T, error) {
	resp, err := c.FindPage(ctx, selector, opts, reqOpts...)
	if err != nil {
		return nil, err
	}
	return resp.Docs, nil
}

// FindPage runs a _find request and returns the whole response, including
// the bookmark for the next page.
func (c *Client[T]) FindPage(ctx context.Context, selector any, opts *couch.FindOptions, reqOpts ...RequestOption) (*couch.FindResponse[T], error) {
	var resp couch.FindResponse[T]
	if err := c.doJSON(ctx, http.MethodPost, "_find", nil, opts.Body(selector), &resp, reqOpts); err != nil {
		return nil, err
	}
	if resp.Warning != "" {
		c.warn("%s", resp.Warning)
	}
	return &resp, nil
}

// Count returns the number of documents in the database, design documents
// included.
func (c *Client[T]) Count(ctx context.Context, reqOpts ...RequestOption) (int, error) {
	var resp couch.RawListResponse
	query := url.Values{"limit": {"0"}}
	if err := c.doJSON(ctx, http.MethodGet, "_all_docs", query, nil, &resp, reqOpts); err != nil {
		return 0, err
	}
	return resp.TotalRows, nil
}

// CountBySelector counts the documents matching selector. Only ids are
// fetched, a page at a time.
func (c *Client[T]) CountBySelector(ctx context.Context, selector any, reqOpts ...RequestOption) (int, error) {
	opts := &couch.FindOptions{Fields: []string{"_id"}, Limit: couch.Ptr(countPageSize)}
	var total int
	for {
		var resp couch.FindResponse[couch.DynamicDoc]
		if err := c.doJSON(ctx, http.MethodPost, "_find", nil, opts.Body(selector), &resp, reqOpts); err != nil {
			return 0, err
		}
		if resp.Warning != "" {
			c.warn("%s", resp.Warning)
		}
		total += len(resp.Docs)
		if len(resp.Docs) < countPageSize || resp.Bookmark == "" || resp.Bookmark == opts.Bookmark {
			return total, nil
		}
		opts.Bookmark = resp.Bookmark
	}
}

// CountByPredicate counts the documents matching p.
func (c *Client[T]) CountByPredicate(ctx context.Context, p mango.Predicate[T], reqOpts ...RequestOption) (int, error) {
	sel, err := mango.Translate(p)
	if err != nil {
		return 0, err
	}
	return c.CountBySelector(ctx, sel, reqOpts...)
}

// ExistsBySelector reports whether any document matches selector.
func (c *Client[T]) ExistsBySelector(ctx context.Context, selector any, reqOpts ...RequestOption) (bool, error) {
	opts := &couch.FindOptions{Fields: []string{"_id"}, Limit: couch.Ptr(1)}
	var resp couch.FindResponse[couch.DynamicDoc]
	if err := c.doJSON(ctx, http.MethodPost, "_find", nil, opts.Body(selector), &resp, reqOpts); err != nil {
		return false, err
	}
	if resp.Warning != "" {
		c.warn("%s", resp.Warning)
	}
	return len(resp.Docs) > 0, nil
}

// ExistsByPredicate reports whether any document matches p.
func (c *Client[T]) ExistsByPredicate(ctx context.Context, p mango.Predicate[T], reqOpts ...RequestOption) (bool, error) {
	sel, err := mango.Translate(p)
	if err != nil {
		return false, err
	}
	return c.ExistsBySelector(ctx, sel, reqOpts...)
}
