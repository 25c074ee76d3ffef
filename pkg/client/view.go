package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

// View queries a view of a design document and decodes each row value as R.
// It is a function rather than a method because methods cannot declare
// type parameters.
func View[T couch.Document, R any](ctx context.Context, c *Client[T], design, view string, opts *couch.ViewOptions, reqOpts ...RequestOption) (*couch.ViewResponse[R], error) {
	if design == "" || view == "" {
		return nil, ErrMissingView
	}
	query, err := opts.Query()
	if err != nil {
		return nil, err
	}
	endpoint := "_design/" + url.PathEscape(design) + "/_view/" + url.PathEscape(view)

	var resp couch.ViewResponse[R]
	if err := c.doJSON(ctx, http.MethodGet, endpoint, query, nil, &resp, reqOpts); err != nil {
		return nil, err
	}
	return &resp, nil
}
