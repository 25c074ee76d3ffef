package couch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// FindOptions are the optional members of a _find request body.
type FindOptions struct {
	Fields   []string `json:"fields,omitempty"`
	Sort     []any    `json:"sort,omitempty"`
	Limit    *int     `json:"limit,omitempty"`
	Skip     *int     `json:"skip,omitempty"`
	UseIndex any      `json:"use_index,omitempty"`
	Bookmark string   `json:"bookmark,omitempty"`

	// Extra holds request members without a dedicated field, such as
	// "execution_stats". A "selector" key here is always replaced.
	Extra map[string]any `json:"-"`
}

// Body builds the _find request body. The selector always occupies the
// "selector" key, whatever the options contain.
func (o *FindOptions) Body(selector any) map[string]any {
	body := make(map[string]any)
	if o != nil {
		for k, v := range o.Extra {
			body[k] = v
		}
		if len(o.Fields) > 0 {
			body["fields"] = o.Fields
		}
		if len(o.Sort) > 0 {
			body["sort"] = o.Sort
		}
		if o.Limit != nil {
			body["limit"] = *o.Limit
		}
		if o.Skip != nil {
			body["skip"] = *o.Skip
		}
		if o.UseIndex != nil {
			body["use_index"] = o.UseIndex
		}
		if o.Bookmark != "" {
			body["bookmark"] = o.Bookmark
		}
	}
	body["selector"] = selector
	return body
}

// ListOptions are the query parameters of _all_docs and view requests.
type ListOptions struct {
	Limit        *int
	Key          any
	Keys         []any
	StartKey     any
	EndKey       any
	InclusiveEnd *bool
	Descending   *bool
	Skip         *int
}

// Query encodes the options as URL parameters. Key parameters are JSON
// encoded as CouchDB expects.
func (o *ListOptions) Query() (url.Values, error) {
	q := make(url.Values)
	if o == nil {
		return q, nil
	}
	if o.Limit != nil {
		q.Set("limit", strconv.Itoa(*o.Limit))
	}
	if o.Skip != nil {
		q.Set("skip", strconv.Itoa(*o.Skip))
	}
	if o.InclusiveEnd != nil {
		q.Set("inclusive_end", strconv.FormatBool(*o.InclusiveEnd))
	}
	if o.Descending != nil {
		q.Set("descending", strconv.FormatBool(*o.Descending))
	}

	keys := []struct {
		name  string
		value any
		set   bool
	}{
		{"key", o.Key, o.Key != nil},
		{"keys", o.Keys, o.Keys != nil},
		{"start_key", o.StartKey, o.StartKey != nil},
		{"end_key", o.EndKey, o.EndKey != nil},
	}
	for _, k := range keys {
		if !k.set {
			continue
		}
		data, err := json.Marshal(k.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k.name, err)
		}
		q.Set(k.name, string(data))
	}
	return q, nil
}

// ViewOptions extend ListOptions with the reduce controls of a view query.
type ViewOptions struct {
	ListOptions
	Reduce      *bool
	Group       *bool
	GroupLevel  *int
	IncludeDocs bool
}

// Query encodes the options as URL parameters.
func (o *ViewOptions) Query() (url.Values, error) {
	if o == nil {
		return make(url.Values), nil
	}
	q, err := o.ListOptions.Query()
	if err != nil {
		return nil, err
	}
	if o.Reduce != nil {
		q.Set("reduce", strconv.FormatBool(*o.Reduce))
	}
	if o.Group != nil {
		q.Set("group", strconv.FormatBool(*o.Group))
	}
	if o.GroupLevel != nil {
		q.Set("group_level", strconv.Itoa(*o.GroupLevel))
	}
	if o.IncludeDocs {
		q.Set("include_docs", "true")
	}
	return q, nil
}
