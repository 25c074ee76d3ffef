package couch

// View is a named map/reduce pair. Map is required JavaScript; Reduce is
// optional.
type View struct {
	Name   string `json:"name,omitempty"`
	Map    string `json:"map"`
	Reduce string `json:"reduce,omitempty"`
}

// DesignDoc is a CouchDB design document. Views are keyed by name.
type DesignDoc struct {
	Doc
	Language string          `json:"language,omitempty"`
	Views    map[string]View `json:"views"`
}

// DesignDocConfig describes the views a design document should carry.
type DesignDocConfig struct {
	Name  string `json:"name"`
	Views []View `json:"views"`
}

// IndexDefinition is the body of a POST /{db}/_index request.
type IndexDefinition struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Index struct {
		Fields []string `json:"fields"`
	} `json:"index"`
}

// NewDesignDoc returns an empty javascript design document named name.
func NewDesignDoc(name string) *DesignDoc {
	return &DesignDoc{
		Doc:      Doc{ID: DesignPrefix + name},
		Language: "javascript",
		Views:    make(map[string]View),
	}
}
