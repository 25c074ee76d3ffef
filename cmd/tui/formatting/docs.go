package formatting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
	"github.com/robert-malhotra/go-couch-client/pkg/mango"
)

const maxValueWidth = 60

// FormatValue renders a decoded JSON value on one line.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", Truncate(val, maxValueWidth))
	case map[string]any:
		return fmt.Sprintf("{%s}", pluralize(len(val), "key"))
	case []any:
		return fmt.Sprintf("[%s]", pluralize(len(val), "item"))
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return Truncate(string(data), maxValueWidth)
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// FormatDocSummary lists the id, revision and top-level fields of doc.
func FormatDocSummary(doc couch.DynamicDoc) string {
	id, rev := doc.IDRev()

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]ID:[white] %s\n", tview.Escape(id))
	if rev != "" {
		fmt.Fprintf(&b, "[yellow]Revision:[white] %s\n", tview.Escape(rev))
	}
	if couch.IsDesignID(id) {
		b.WriteString("[green]Design document[white]\n")
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		if k == "_id" || k == "_rev" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		b.WriteString("\n[gray]No fields[white]\n")
		return b.String()
	}
	b.WriteString("\n[yellow]Fields:[white]\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %s\n", tview.Escape(k), tview.Escape(FormatValue(doc[k])))
	}
	return b.String()
}

// FormatDatabaseInfo summarizes the server and database for the header pane.
func FormatDatabaseInfo(server *couch.ServerInfo, info *couch.DatabaseInfo) string {
	if server == nil || info == nil {
		return ""
	}
	return fmt.Sprintf("[yellow]%s[white] on CouchDB %s  |  %s docs, %s deleted  |  %s on disk",
		tview.Escape(info.Name),
		tview.Escape(server.Version),
		humanize.Comma(info.DocCount),
		humanize.Comma(info.DelCount),
		humanize.IBytes(uint64(info.Sizes.File)))
}

// FormatSelector pretty prints sel as JSON.
func FormatSelector(sel mango.Selector) (string, error) {
	data, err := sel.JSON()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
