package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

// ServerInfo returns the welcome document of the CouchDB node.
func (c *Client[T]) ServerInfo(ctx context.Context, reqOpts ...RequestOption) (*couch.ServerInfo, error) {
	var info couch.ServerInfo
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, nil, &info, reqOpts); err != nil {
		return nil, err
	}
	return &info, nil
}

// Version returns the CouchDB version string, e.g. "3.3.3".
func (c *Client[T]) Version(ctx context.Context, reqOpts ...RequestOption) (string, error) {
	info, err := c.ServerInfo(ctx, reqOpts...)
	if err != nil {
		return "", err
	}
	return info.Version, nil
}

// DatabaseInfo returns document counts and sizes of the client's database.
func (c *Client[T]) DatabaseInfo(ctx context.Context, reqOpts ...RequestOption) (*couch.DatabaseInfo, error) {
	var info couch.DatabaseInfo
	if err := c.doJSON(ctx, http.MethodGet, "", nil, nil, &info, reqOpts); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateDatabase creates the client's database. An existing database is not
// an error; it is reported through AlreadyExisted.
func (c *Client[T]) CreateDatabase(ctx context.Context, reqOpts ...RequestOption) (*couch.CreateDatabaseResult, error) {
	var result couch.CreateDatabaseResult
	err := c.doJSON(ctx, http.MethodPut, "", nil, nil, &result, reqOpts)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusPreconditionFailed {
		return &couch.CreateDatabaseResult{OK: true, AlreadyExisted: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
