package couch

import "encoding/json"

// WriteResult is returned by CouchDB for POST, PUT, COPY and DELETE requests.
type WriteResult struct {
	ID  string `json:"id"`
	Rev string `json:"rev"`
	OK  bool   `json:"ok"`
}

// CreateDatabaseResult reports the outcome of a database creation.
type CreateDatabaseResult struct {
	OK             bool `json:"ok"`
	AlreadyExisted bool `json:"already_existed"`
}

// FindResponse is the body of a _find response.
type FindResponse[T any] struct {
	Docs     []T    `json:"docs"`
	Warning  string `json:"warning,omitempty"`
	Bookmark string `json:"bookmark,omitempty"`
}

// Revision is the value of an _all_docs row.
type Revision struct {
	Rev string `json:"rev"`
}

// ListedRow is one row of an _all_docs response.
type ListedRow[T any] struct {
	ID    string   `json:"id"`
	Key   string   `json:"key"`
	Value Revision `json:"value"`
	Doc   T        `json:"doc,omitempty"`
}

// ListResponse is an _all_docs result with design documents split from the
// typed rows.
type ListResponse[T any] struct {
	TotalRows  int                     `json:"total_rows"`
	Offset     int                     `json:"offset"`
	Rows       []ListedRow[T]          `json:"rows"`
	DesignDocs []ListedRow[DynamicDoc] `json:"design_docs,omitempty"`
}

// RawListResponse is the undecoded _all_docs body.
type RawListResponse struct {
	TotalRows int                          `json:"total_rows"`
	Offset    int                          `json:"offset"`
	Rows      []ListedRow[json.RawMessage] `json:"rows"`
}

// ViewRow is one row of a view result.
type ViewRow[R any] struct {
	ID    string          `json:"id,omitempty"`
	Key   any             `json:"key"`
	Value R               `json:"value"`
	Doc   json.RawMessage `json:"doc,omitempty"`
}

// ViewResponse is the body of a view query.
type ViewResponse[R any] struct {
	TotalRows int          `json:"total_rows"`
	Offset    int          `json:"offset"`
	Rows      []ViewRow[R] `json:"rows"`
}
