package main

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-couch-client/cmd/tui/formatting"
	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

const (
	pageConnect = "connect"
	pageDocs    = "docs"

	labelURL      = "CouchDB URL"
	labelDatabase = "Database"
	labelAuth     = "Authentication"
	labelUsername = "Username"
	labelSecret   = "Password / token / secret"
	labelRoles    = "Proxy roles"

	itemLoadMore = "Load more"
	itemLoading  = "Loading documents…"
)

const docsHelpControls = "[yellow]↑/↓[white] select  [yellow]Enter/j[white] raw JSON  [yellow]q[white] query  [yellow]a[white] all documents  [yellow]Esc[white] back  [yellow]Ctrl+C[white] quit"

func (t *TUI) setupPages() {
	t.setupConnectPage()
	t.setupDocsPage()
	t.setupQueryBuilderPage()
}

func (t *TUI) setupConnectPage() {
	modes := make([]string, len(authModes))
	for i, m := range authModes {
		modes[i] = string(m)
	}
	initialMode := 0
	if t.cfg.Username != "" && t.cfg.Password != "" {
		initialMode = 1
	}

	t.connectForm = tview.NewForm().
		AddInputField(labelURL, t.cfg.URL, 60, nil, nil).
		AddInputField(labelDatabase, t.cfg.Database, 40, nil, nil).
		AddDropDown(labelAuth, modes, initialMode, nil).
		AddInputField(labelUsername, t.cfg.Username, 40, nil, nil).
		AddPasswordField(labelSecret, t.cfg.Password, 40, '*', nil).
		AddInputField(labelRoles, "", 40, nil, nil).
		AddButton("Connect", func() { go t.connect() }).
		AddButton("Quit", t.Stop)
	t.connectForm.SetBorder(true).SetTitle("Connect to CouchDB")

	help := formatting.MakeHelpText("[yellow]Tab[white] next field  [yellow]Enter[white] select  [yellow]Ctrl+C[white] quit")
	page := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.connectForm, 0, 1, true).
		AddItem(help, 3, 0, false)

	t.pages.AddPage(pageConnect, page, true, true)
}

func (t *TUI) setupDocsPage() {
	t.dbHeader = tview.NewTextView().SetDynamicColors(true)
	t.dbHeader.SetBorder(true).SetTitle("Database")

	t.docsList = tview.NewList()
	t.docsList.SetBorder(true)
	t.docsList.SetTitle(t.docsListTitle(false))
	t.docsList.ShowSecondaryText(false)
	t.docsList.SetWrapAround(false)

	t.docSummary = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true).SetScrollable(true)
	t.docSummary.SetBorder(true).SetTitle("Document")

	content := tview.NewFlex().
		AddItem(t.docsList, 0, 1, true).
		AddItem(t.docSummary, 0, 2, false)

	t.docsHelp = formatting.MakeHelpText("")
	t.updateDocsHelp()
	page := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.dbHeader, 3, 0, false).
		AddItem(content, 0, 1, true).
		AddItem(t.docsHelp, 3, 0, false)

	t.docsList.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		if index < len(t.docs) {
			t.docSummary.SetText(formatting.FormatDocSummary(t.docs[index]))
			t.docSummary.ScrollToBeginning()
		} else {
			t.docSummary.Clear()
		}

		if index >= t.docsList.GetItemCount()-2 {
			last, _ := t.docsList.GetItemText(t.docsList.GetItemCount() - 1)
			if last == itemLoadMore {
				go t.loadNextPage()
			}
		}
	})

	t.pages.AddPage(pageDocs, page, true, false)
}

func (t *TUI) docsListTitle(loading bool) string {
	title := "Documents"
	if label := t.activeResultLabel; label != "" {
		title = fmt.Sprintf("%s – %s", title, label)
	}
	if loading {
		title += " (loading...)"
	}
	return title
}

func (t *TUI) updateDocsHelp() {
	if t.docsHelp == nil {
		return
	}
	text := docsHelpControls
	if label := t.activeResultLabel; label != "" {
		text = fmt.Sprintf("%s\n[white]Source: [green]%s[white]", docsHelpControls, tview.Escape(label))
	}
	t.docsHelp.SetText(text)
}

func (t *TUI) formText(label string) string {
	if field, ok := t.connectForm.GetFormItemByLabel(label).(*tview.InputField); ok {
		return strings.TrimSpace(field.GetText())
	}
	return ""
}

// readConnectForm must run on the UI goroutine.
func (t *TUI) readConnectForm() (baseURL, database string, cfg authConfig) {
	cfg.mode = authModeNone
	if dd, ok := t.connectForm.GetFormItemByLabel(labelAuth).(*tview.DropDown); ok {
		if idx, _ := dd.GetCurrentOption(); idx >= 0 && idx < len(authModes) {
			cfg.mode = authModes[idx]
		}
	}
	cfg.username = t.formText(labelUsername)
	if field, ok := t.connectForm.GetFormItemByLabel(labelSecret).(*tview.InputField); ok {
		cfg.secret = field.GetText()
	}
	cfg.roles = parseRoles(t.formText(labelRoles))
	return t.formText(labelURL), t.formText(labelDatabase), cfg
}

// newClient builds a client for the connect form values.
func (t *TUI) newClient(baseURL, database string, authCfg authConfig) (*client.Client[couch.DynamicDoc], error) {
	rt, err := authCfg.transport(http.DefaultTransport)
	if err != nil {
		return nil, err
	}
	timeout := t.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return client.New[couch.DynamicDoc](
		client.WithBaseURL(baseURL),
		client.WithDatabase(database),
		client.WithHTTPClient(&http.Client{Transport: rt, Timeout: timeout}),
		client.WithRateLimit(t.cfg.RateLimit, t.cfg.Burst),
		client.WithWarningHandler(func(msg string) { t.showInfo("CouchDB warning: " + msg) }),
	)
}

func (t *TUI) connect() {
	var (
		baseURL, database string
		authCfg           authConfig
	)
	done := make(chan struct{})
	t.app.QueueUpdate(func() {
		baseURL, database, authCfg = t.readConnectForm()
		t.connectForm.SetTitle("Connect to CouchDB (connecting...)")
		close(done)
	})
	<-done

	c, err := t.newClient(baseURL, database, authCfg)
	if err != nil {
		t.connectFailed(err, authCfg.mode)
		return
	}

	ctx, cancel := context.WithTimeout(t.baseCtx, 15*time.Second)
	defer cancel()
	server, err := c.ServerInfo(ctx)
	if err != nil {
		t.connectFailed(err, authCfg.mode)
		return
	}
	if !couch.IsVersion2OrAbove(server.Version) {
		t.showInfo(fmt.Sprintf("CouchDB %s predates 2.0; queries will not work.", server.Version))
	}
	info, err := c.DatabaseInfo(ctx)
	if err != nil {
		t.connectFailed(err, authCfg.mode)
		return
	}

	t.app.QueueUpdateDraw(func() {
		t.client = c
		t.server = server
		t.database = info
		t.currentAuth = authCfg
		t.connectForm.SetTitle("Connect to CouchDB")
		t.dbHeader.SetText(formatting.FormatDatabaseInfo(server, info))
		t.pages.SwitchToPage(pageDocs)
		t.app.SetFocus(t.docsList)
	})
	t.loadAllDocs()
}

func (t *TUI) connectFailed(err error, mode authMode) {
	t.app.QueueUpdateDraw(func() {
		t.connectForm.SetTitle("Connect to CouchDB")
	})
	if client.StatusCode(err) == http.StatusUnauthorized {
		t.showError(fmt.Sprintf("Authentication failed (%s): %v", mode, err))
		return
	}
	t.showError(err.Error())
}

// loadAllDocs streams _all_docs into the documents list.
func (t *TUI) loadAllDocs() {
	if t.client == nil {
		t.showError("Connect to a database first.")
		return
	}
	t.resetDocsList()
	ctx, cancel := context.WithCancel(t.baseCtx)
	t.startDocStream("all documents", t.client.All(ctx, t.pageSize), cancel)
}

func (t *TUI) resetDocsList() {
	t.app.QueueUpdateDraw(func() {
		t.docsList.Clear()
		t.docSummary.Clear()
		t.docsList.AddItem(itemLoading, "", 0, nil)
		t.docsList.SetTitle(t.docsListTitle(true))
	})
}

func (t *TUI) startDocStream(label string, seq iter.Seq2[couch.DynamicDoc, error], cancel context.CancelFunc) {
	t.cancelDocIteration()

	t.docs = nil
	t.activeResultLabel = label

	t.docLoadingMutex.Lock()
	t.isLoadingDocs = false
	t.isExhausted = false
	t.docLoadingMutex.Unlock()

	t.docsIteratorCancel = cancel
	next, stop := iter.Pull2(seq)
	t.docsIterator = next
	t.docsIteratorStop = stop

	t.app.QueueUpdateDraw(func() {
		t.updateDocsHelp()
	})

	t.loadNextPage()
}

func (t *TUI) loadNextPage() {
	t.docLoadingMutex.Lock()
	if t.isLoadingDocs || t.isExhausted {
		t.docLoadingMutex.Unlock()
		return
	}
	if err := t.baseCtx.Err(); err != nil {
		t.docLoadingMutex.Unlock()
		return
	}
	t.isLoadingDocs = true
	t.docLoadingMutex.Unlock()

	t.app.QueueUpdateDraw(func() {
		t.docsList.SetTitle(t.docsListTitle(true))
		if c := t.docsList.GetItemCount(); c > 0 {
			main, _ := t.docsList.GetItemText(c - 1)
			if main == itemLoadMore || main == itemLoading {
				t.docsList.RemoveItem(c - 1)
			}
		}
	})

	go func() {
		var batch []couch.DynamicDoc
		exhausted := false
		var pullErr error

		if err := t.baseCtx.Err(); err != nil {
			pullErr = err
			exhausted = true
		} else {
			for i := 0; i < t.pageSize; i++ {
				if t.docsIterator == nil {
					pullErr = fmt.Errorf("no iterator initialized")
					break
				}
				doc, err, ok := t.docsIterator()
				if err != nil {
					pullErr = err
					exhausted = true
					break
				}
				if !ok {
					exhausted = true
					break
				}
				batch = append(batch, doc)
			}
		}

		t.app.QueueUpdateDraw(func() {
			t.docsList.SetTitle(t.docsListTitle(false))

			if pullErr != nil {
				t.showError(pullErr.Error())
			}

			t.docs = append(t.docs, batch...)
			for _, doc := range batch {
				id, _ := doc.IDRev()
				t.docsList.AddItem(tview.Escape(id), "", 0, func() {
					t.jsonViewer.ShowDoc(doc)
				})
			}

			if exhausted || pullErr != nil {
				t.isExhausted = true
				if len(t.docs) == 0 {
					t.docsList.AddItem("No documents found.", "", 0, nil)
				} else {
					t.docsList.AddItem("No more documents.", "", 0, nil)
				}
				if t.docsIteratorStop != nil {
					t.docsIteratorStop()
					t.docsIteratorStop = nil
				}
				if t.docsIteratorCancel != nil {
					t.docsIteratorCancel()
					t.docsIteratorCancel = nil
				}
			} else {
				t.docsList.AddItem(itemLoadMore, "", 0, nil)
			}

			if t.docsList.GetItemCount() > 0 && t.docsList.GetCurrentItem() < 0 {
				t.docsList.SetCurrentItem(0)
			}
		})

		t.docLoadingMutex.Lock()
		t.isLoadingDocs = false
		t.docLoadingMutex.Unlock()
	}()
}

func (t *TUI) showInfo(message string) {
	t.app.QueueUpdateDraw(func() {
		modal := tview.NewModal().
			SetText(message).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(buttonIndex int, buttonLabel string) {
				t.pages.HidePage("info")
			})
		t.pages.RemovePage("info")
		t.pages.AddPage("info", modal, false, true)
		t.pages.ShowPage("info")
	})
}

func (t *TUI) showError(message string) {
	t.app.QueueUpdateDraw(func() {
		modal := tview.NewModal().
			SetText(message).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(buttonIndex int, buttonLabel string) {
				t.pages.HidePage("error")
			})
		t.pages.RemovePage("error")
		t.pages.AddPage("error", modal, false, true)
		t.pages.ShowPage("error")
	})
}
