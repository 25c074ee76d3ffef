package main

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-couch-client/internal/config"
	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

type TUI struct {
	app         *tview.Application
	pages       *tview.Pages
	connectForm *tview.Form
	dbHeader    *tview.TextView
	docsList    *tview.List
	docSummary  *tview.TextView
	docsHelp    *tview.TextView

	client   *client.Client[couch.DynamicDoc]
	cfg      *config.Config
	docs     []couch.DynamicDoc
	server   *couch.ServerInfo
	database *couch.DatabaseInfo

	activeResultLabel string

	// Pull iterator over the current result set, drained one page at a time.
	docsIterator       func() (couch.DynamicDoc, error, bool)
	docsIteratorStop   func()
	docsIteratorCancel context.CancelFunc

	pageSize      int
	isLoadingDocs bool
	isExhausted   bool

	docLoadingMutex sync.Mutex

	baseCtx    context.Context
	baseCancel context.CancelFunc
	stopOnce   sync.Once

	jsonViewer   *jsonViewer
	queryBuilder *queryBuilder

	currentAuth authConfig
}

// configureStyles sets the tview global styles for the TUI.
// Note: This modifies global state in tview.Styles.
func configureStyles() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorDarkSlateGray
	tview.Styles.MoreContrastBackgroundColor = tcell.ColorGreen
	tview.Styles.BorderColor = tcell.ColorWhite
	tview.Styles.TitleColor = tcell.ColorWhite
	tview.Styles.GraphicsColor = tcell.ColorWhite
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorYellow
	tview.Styles.TertiaryTextColor = tcell.ColorGreen
	tview.Styles.InverseTextColor = tcell.ColorBlue
	tview.Styles.ContrastSecondaryTextColor = tcell.ColorNavy
}

// NewTUI creates a new TUI instance. The provided context controls the
// lifetime of background operations; pass nil to use context.Background().
// cfg pre-fills the connect form and may be nil.
func NewTUI(ctx context.Context, cfg *config.Config) *TUI {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = &config.Config{URL: "http://localhost:5984"}
	}
	baseCtx, baseCancel := context.WithCancel(ctx)

	configureStyles()

	tui := &TUI{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		cfg:        cfg,
		pageSize:   25,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}

	tui.setupPages()
	tui.jsonViewer = newJSONViewer(tui)

	tui.app.SetInputCapture(tui.onInputCapture)
	tui.app.SetFocus(tui.connectForm)

	return tui
}

// Run starts the TUI event loop. It blocks until the application exits
// and returns any error that occurred.
func (t *TUI) Run() error {
	return t.app.SetRoot(t.pages, true).Run()
}

func (t *TUI) Stop() {
	t.stopOnce.Do(func() {
		if t.baseCancel != nil {
			t.baseCancel()
		}
		t.cancelDocIteration()
		t.app.Stop()
	})
}

func (t *TUI) cancelDocIteration() {
	if t.docsIteratorCancel != nil {
		t.docsIteratorCancel()
		t.docsIteratorCancel = nil
	}
	if t.docsIteratorStop != nil {
		t.docsIteratorStop()
		t.docsIteratorStop = nil
	}
	t.docsIterator = nil

	t.docLoadingMutex.Lock()
	t.isLoadingDocs = false
	t.docLoadingMutex.Unlock()
}
