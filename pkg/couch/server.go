package couch

import (
	"strconv"
	"strings"
)

// ServerInfo is the body of GET / on a CouchDB node.
type ServerInfo struct {
	CouchDB  string   `json:"couchdb"`
	Version  string   `json:"version"`
	UUID     string   `json:"uuid,omitempty"`
	Features []string `json:"features,omitempty"`
	Vendor   struct {
		Name    string `json:"name"`
		Version string `json:"version,omitempty"`
	} `json:"vendor"`
}

// DatabaseInfo is the body of GET /{db}.
type DatabaseInfo struct {
	Name      string `json:"db_name"`
	DocCount  int64  `json:"doc_count"`
	DelCount  int64  `json:"doc_del_count"`
	UpdateSeq any    `json:"update_seq"`
	Sizes     struct {
		File     int64 `json:"file"`
		External int64 `json:"external"`
		Active   int64 `json:"active"`
	} `json:"sizes"`
}

// MajorVersion returns the leading number of a dotted version string.
func MajorVersion(version string) (int, bool) {
	major, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsVersion2OrAbove reports whether version is a CouchDB 2.x or later
// release. Unparseable versions report false.
func IsVersion2OrAbove(version string) bool {
	major, ok := MajorVersion(version)
	return ok && major >= 2
}
