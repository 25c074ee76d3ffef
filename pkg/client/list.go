package client

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"strconv"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

// DefaultPageSize is used by All when no positive page size is given.
const DefaultPageSize = 100

// ListWithDocs lists documents via _all_docs with their bodies. Design
// documents are returned separately in DesignDocs.
func (c *Client[T]) ListWithDocs(ctx context.Context, opts *couch.ListOptions, reqOpts ...RequestOption) (*couch.ListResponse[T], error) {
	return c.list(ctx, opts, true, reqOpts)
}

// ListWithoutDocs lists document ids and revisions via _all_docs.
func (c *Client[T]) ListWithoutDocs(ctx context.Context, opts *couch.ListOptions, reqOpts ...RequestOption) (*couch.ListResponse[T], error) {
	return c.list(ctx, opts, false, reqOpts)
}

func (c *Client[T]) list(ctx context.Context, opts *couch.ListOptions, includeDocs bool, reqOpts []RequestOption) (*couch.ListResponse[T], error) {
	query, err := opts.Query()
	if err != nil {
		return nil, err
	}
	query.Set("include_docs", strconv.FormatBool(includeDocs))

	var raw couch.RawListResponse
	if err := c.doJSON(ctx, http.MethodGet, "_all_docs", query, nil, &raw, reqOpts); err != nil {
		return nil, err
	}
	return splitRows[T](&raw)
}

func splitRows[T any](raw *couch.RawListResponse) (*couch.ListResponse[T], error) {
	resp := &couch.ListResponse[T]{
		TotalRows: raw.TotalRows,
		Offset:    raw.Offset,
		Rows:      make([]couch.ListedRow[T], 0, len(raw.Rows)),
	}
	for _, r := range raw.Rows {
		if couch.IsDesignID(r.ID) {
			row := couch.ListedRow[couch.DynamicDoc]{ID: r.ID, Key: r.Key, Value: r.Value}
			if len(r.Doc) > 0 {
				if err := json.Unmarshal(r.Doc, &row.Doc); err != nil {
					return nil, fmt.Errorf("couchclient: decode design doc %s: %w", r.ID, err)
				}
			}
			resp.DesignDocs = append(resp.DesignDocs, row)
			continue
		}
		row := couch.ListedRow[T]{ID: r.ID, Key: r.Key, Value: r.Value}
		if len(r.Doc) > 0 && string(r.Doc) != "null" {
			if err := json.Unmarshal(r.Doc, &row.Doc); err != nil {
				return nil, fmt.Errorf("couchclient: decode doc %s: %w", r.ID, err)
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

// All streams every non-design document in id order, fetching pageSize rows
// per request.
func (c *Client[T]) All(ctx context.Context, pageSize int, reqOpts ...RequestOption) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for page, err := range c.pages(ctx, couch.ListOptions{}, pageSize, reqOpts) {
			if err != nil {
				yield(zero, err)
				return
			}
			for _, row := range page.Rows {
				if !yield(row.Doc, nil) {
					return
				}
			}
		}
	}
}

// DesignDocs streams the design documents of the database, which All skips.
func (c *Client[T]) DesignDocs(ctx context.Context, pageSize int, reqOpts ...RequestOption) iter.Seq2[couch.DynamicDoc, error] {
	return func(yield func(couch.DynamicDoc, error) bool) {
		opts := couch.ListOptions{StartKey: designKeyStart, EndKey: designKeyEnd}
		for page, err := range c.pages(ctx, opts, pageSize, reqOpts) {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, row := range page.DesignDocs {
				if !yield(row.Doc, nil) {
					return
				}
			}
		}
	}
}

// _all_docs sorts ids by raw byte order, so every design document falls
// between "_design/" and "_design0".
const (
	designKeyStart = "_design/"
	designKeyEnd   = "_design0"
)

// pages walks _all_docs from opts, restarting each page after the last key
// seen. A short page ends the walk.
func (c *Client[T]) pages(ctx context.Context, opts couch.ListOptions, pageSize int, reqOpts []RequestOption) iter.Seq2[*couch.ListResponse[T], error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	requestOpts := append([]RequestOption{}, reqOpts...)

	return func(yield func(*couch.ListResponse[T], error) bool) {
		opts := opts
		opts.Limit = couch.Ptr(pageSize)
		for {
			page, err := c.list(ctx, &opts, true, requestOpts)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if len(page.Rows)+len(page.DesignDocs) < pageSize {
				return
			}
			opts.StartKey = lastKey(page)
			opts.Skip = couch.Ptr(1)
		}
	}
}

func lastKey[T any](page *couch.ListResponse[T]) string {
	var key string
	if n := len(page.Rows); n > 0 {
		key = page.Rows[n-1].Key
	}
	if n := len(page.DesignDocs); n > 0 && page.DesignDocs[n-1].Key > key {
		key = page.DesignDocs[n-1].Key
	}
	return key
}
