package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

func TestImportDocs(t *testing.T) {
	input := strings.Join([]string{
		`{"_id": "a", "title": "Alien"}`,
		``,
		`{"_id": "b", "title": "Brazil", "year": 1985}`,
		`{"_id": "c"`,
		`{"_id": "d", "title": "Dune"}`,
	}, "\n")

	var (
		mu   sync.Mutex
		seen []string
	)
	create := func(_ context.Context, doc couch.DynamicDoc) error {
		id, _ := doc.IDRev()
		if id == "d" {
			return errors.New("conflict")
		}
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, id)
		return nil
	}

	stats, err := importDocs(context.Background(), strings.NewReader(input), 2, create)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "line 4: conflict")
	assert.Equal(t, importStats{Lines: 4, Created: 2, Failed: 2}, stats)
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestImportDocsRecoversPanics(t *testing.T) {
	stats, err := importDocs(context.Background(), strings.NewReader(`{"_id": "x"}`), 1,
		func(context.Context, couch.DynamicDoc) error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int64(1), stats.Failed)
}

func TestImportDocsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := importDocs(ctx, strings.NewReader(`{"_id": "x"}`), 1,
		func(context.Context, couch.DynamicDoc) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"year", "title", "genre"}, splitFields([]string{"year, title", "", "genre"}))
	assert.Nil(t, splitFields(nil))
}
