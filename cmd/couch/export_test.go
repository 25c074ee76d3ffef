package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

func docSeq(docs []couch.DynamicDoc, tail error) func(func(couch.DynamicDoc, error) bool) {
	return func(yield func(couch.DynamicDoc, error) bool) {
		for _, d := range docs {
			if !yield(d, nil) {
				return
			}
		}
		if tail != nil {
			yield(nil, tail)
		}
	}
}

func sampleDocs() []couch.DynamicDoc {
	return []couch.DynamicDoc{
		{"_id": "_design/films", "_rev": "1-a", "language": "javascript"},
		{"_id": "alien", "_rev": "2-b", "title": "Alien <1979>"},
	}
}

func TestExportDocs(t *testing.T) {
	var buf bytes.Buffer
	n, err := exportDocs(&buf, docSeq(sampleDocs(), nil), exportOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, `{"_id":"alien","title":"Alien <1979>"}`+"\n", buf.String())

	buf.Reset()
	n, err = exportDocs(&buf, docSeq(sampleDocs(), nil), exportOptions{keepRev: true, design: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, buf.String(), `"_rev":"2-b"`)
	assert.Contains(t, buf.String(), "_design/films")
}

func TestExportDocsError(t *testing.T) {
	var buf bytes.Buffer
	n, err := exportDocs(&buf, docSeq(sampleDocs()[1:], errors.New("boom")), exportOptions{})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int64(1), n)
}

func TestExportImportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := exportDocs(&buf, docSeq(sampleDocs(), nil), exportOptions{design: true})
	require.NoError(t, err)

	var ids []string
	stats, err := importDocs(context.Background(), strings.NewReader(buf.String()), 1, func(_ context.Context, doc couch.DynamicDoc) error {
		id, rev := doc.IDRev()
		assert.Empty(t, rev)
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Created)
	assert.ElementsMatch(t, []string{"_design/films", "alien"}, ids)
}

func TestExportSourceIncludesDesignDocs(t *testing.T) {
	var startKeys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/films/_all_docs", r.URL.Path)
		q := r.URL.Query()
		startKeys = append(startKeys, q.Get("start_key"))

		rows := []any{
			map[string]any{"id": "_design/app", "key": "_design/app", "value": map[string]any{"rev": "1-d"},
				"doc": map[string]any{"_id": "_design/app", "_rev": "1-d", "language": "javascript"}},
			map[string]any{"id": "a", "key": "a", "value": map[string]any{"rev": "1-a"},
				"doc": map[string]any{"_id": "a", "_rev": "1-a", "title": "Alien"}},
		}
		if q.Get("start_key") == `"_design/"` {
			assert.Equal(t, `"_design0"`, q.Get("end_key"))
			rows = rows[:1]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"total_rows": 2, "offset": 0, "rows": rows})
	}))
	t.Cleanup(server.Close)

	c, err := client.New[couch.DynamicDoc](
		client.WithBaseURL(server.URL),
		client.WithDatabase("films"),
		client.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	ctx := context.Background()

	var buf bytes.Buffer
	opts := exportOptions{design: true}
	n, err := exportDocs(&buf, exportSource(ctx, c, 10, opts), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, `{"_id":"_design/app","language":"javascript"}`+"\n"+`{"_id":"a","title":"Alien"}`+"\n", buf.String())
	assert.Equal(t, []string{`"_design/"`, ""}, startKeys)

	buf.Reset()
	startKeys = nil
	n, err = exportDocs(&buf, exportSource(ctx, c, 10, exportOptions{}), exportOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, `{"_id":"a","title":"Alien"}`+"\n", buf.String())
	assert.Equal(t, []string{""}, startKeys)
}
