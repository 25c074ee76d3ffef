// Package couch holds the document model and the request and response
// envelopes exchanged with a CouchDB database.
package couch

import "strings"

// DesignPrefix marks design document ids.
const DesignPrefix = "_design/"

// Document is anything stored in CouchDB. It must expose its id and revision,
// either by embedding Doc or by being a DynamicDoc.
type Document interface {
	IDRev() (id, rev string)
}

// Doc carries the CouchDB id and revision. Embed it in document structs:
//
//	type Post struct {
//		couch.Doc
//		Title string `json:"title"`
//	}
type Doc struct {
	ID  string `json:"_id,omitempty"`
	Rev string `json:"_rev,omitempty"`
}

// IDRev implements Document.
func (d Doc) IDRev() (id, rev string) {
	return d.ID, d.Rev
}

// SetIDRev stores the id and revision returned by a write.
func (d *Doc) SetIDRev(id, rev string) {
	d.ID, d.Rev = id, rev
}

// DynamicDoc is a schemaless document.
type DynamicDoc map[string]any

// IDRev implements Document.
func (m DynamicDoc) IDRev() (id, rev string) {
	id, _ = m["_id"].(string)
	rev, _ = m["_rev"].(string)
	return id, rev
}

// SetIDRev stores the id and revision returned by a write.
func (m DynamicDoc) SetIDRev(id, rev string) {
	m["_id"] = id
	m["_rev"] = rev
}

// IsDesignID reports whether id names a design document.
func IsDesignID(id string) bool {
	return strings.HasPrefix(id, "_design")
}

// Ptr returns a pointer to v, for optional fields in option structs.
func Ptr[T any](v T) *T {
	return &v
}
