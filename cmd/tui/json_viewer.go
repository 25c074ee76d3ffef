package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-couch-client/cmd/tui/formatting"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

const jsonPageID = "jsonView"

// jsonViewer owns the transient page used to display raw JSON.
type jsonViewer struct {
	tui       *TUI
	mu        sync.Mutex
	prevPage  string
	prevFocus tview.Primitive

	snapshotTitle string
	snapshotData  []byte

	// docID is set while a document is shown so it can be reloaded.
	docID string
}

func newJSONViewer(t *TUI) *jsonViewer {
	return &jsonViewer{tui: t}
}

// ShowDoc displays a document; the title carries its id and revision.
func (v *jsonViewer) ShowDoc(doc couch.DynamicDoc) {
	id, rev := doc.IDRev()
	title := fmt.Sprintf("Document %s", id)
	if rev != "" {
		title = fmt.Sprintf("%s @ %s", title, rev)
	}
	v.show(title, doc, id, true)
}

func (v *jsonViewer) Show(title string, value any) {
	v.show(title, value, "", true)
}

// show renders value. snapshot is false when replacing the current view, so
// the page and focus to return to are kept.
func (v *jsonViewer) show(title string, value any, docID string, snapshot bool) {
	if value == nil {
		return
	}

	if snapshot {
		// Snapshot current navigation state immediately to avoid races.
		focus := v.tui.app.GetFocus()
		currentPage, _ := v.tui.pages.GetFrontPage()
		v.mu.Lock()
		v.prevFocus = focus
		v.prevPage = currentPage
		v.mu.Unlock()
	}

	v.mu.Lock()
	v.snapshotTitle = title
	v.docID = docID
	v.mu.Unlock()

	go func(val any, pageTitle string) {
		encoded, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			v.tui.showError(fmt.Sprintf("Failed to render JSON: %v", err))
			return
		}

		text := tview.Escape(string(encoded))
		dataCopy := append([]byte(nil), encoded...)

		v.mu.Lock()
		v.snapshotData = dataCopy
		v.mu.Unlock()

		v.tui.app.QueueUpdateDraw(func() {
			textView := tview.NewTextView().
				SetDynamicColors(true).
				SetScrollable(true).
				SetWordWrap(false)
			textView.SetChangedFunc(func() { v.tui.app.Draw() })
			textView.SetBorder(true).SetTitle(pageTitle)
			textView.SetText(text)
			textView.SetInputCapture(v.handleInput)

			help := "[yellow]Esc[white] close  |  [yellow]s[white] save JSON  |  [yellow]Ctrl+C[white] quit"
			if docID != "" {
				help = "[yellow]Esc[white] close  |  [yellow]r[white] reload  |  [yellow]s[white] save JSON  |  [yellow]Ctrl+C[white] quit"
			}
			instructions := formatting.MakeHelpText(help)
			layout := tview.NewFlex().
				SetDirection(tview.FlexRow).
				AddItem(textView, 0, 1, true).
				AddItem(instructions, 3, 0, false)

			v.tui.pages.RemovePage(jsonPageID)
			v.tui.pages.AddPage(jsonPageID, layout, true, false)
			v.tui.pages.ShowPage(jsonPageID)
			v.tui.pages.SwitchToPage(jsonPageID)
			v.tui.app.SetFocus(textView)
		})
	}(value, title)
}

func (v *jsonViewer) Close() {
	v.mu.Lock()
	prevFocus := v.prevFocus
	prevPage := v.prevPage
	v.prevFocus = nil
	v.prevPage = ""
	v.snapshotTitle = ""
	v.snapshotData = nil
	v.docID = ""
	v.mu.Unlock()

	updateUI := func() {
		if prevPage != "" {
			v.tui.pages.SwitchToPage(prevPage)
		}
		v.tui.pages.HidePage(jsonPageID)

		if prevFocus != nil {
			v.tui.app.SetFocus(prevFocus)
		}
	}

	go v.tui.app.QueueUpdateDraw(updateUI)
}

func (v *jsonViewer) Save() {
	v.mu.Lock()
	data := append([]byte(nil), v.snapshotData...)
	title := v.snapshotTitle
	v.mu.Unlock()

	if len(data) == 0 {
		return
	}

	filename := formatting.GenerateJSONFilename(title)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		v.tui.showError(fmt.Sprintf("Failed to save JSON: %v", err))
		return
	}

	v.tui.showInfo(fmt.Sprintf("JSON saved to %s", filename))
}

// Reload fetches the latest revision of the shown document.
func (v *jsonViewer) Reload() {
	v.mu.Lock()
	id := v.docID
	v.mu.Unlock()
	if id == "" || v.tui.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(v.tui.baseCtx, 15*time.Second)
	defer cancel()
	doc, err := v.tui.client.Get(ctx, id, "")
	if err != nil {
		v.tui.showError(fmt.Sprintf("Failed to reload %s: %v", id, err))
		return
	}
	_, rev := doc.IDRev()
	v.show(fmt.Sprintf("Document %s @ %s", id, rev), doc, id, false)
}

func (v *jsonViewer) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		v.tui.Stop()
		return nil
	case tcell.KeyEscape:
		v.Close()
		return nil
	case tcell.KeyRune:
		r := event.Rune()
		if r == 's' || r == 'S' {
			go v.Save()
			return nil
		}
		if r == 'r' || r == 'R' {
			go v.Reload()
			return nil
		}
	}

	return event
}

// showJSON exposes the viewer through the TUI type for handlers.
func (t *TUI) showJSON(title string, value any) {
	if t.jsonViewer == nil {
		t.showError("JSON viewer not initialized")
		return
	}
	t.jsonViewer.Show(title, value)
}

