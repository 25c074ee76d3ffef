package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

func (t *TUI) onInputCapture(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		t.Stop()
		return nil
	}

	currentPage, _ := t.pages.GetFrontPage()
	if currentPage != pageDocs {
		// The connect form, query builder and JSON view handle their own keys.
		return event
	}

	switch event.Key() {
	case tcell.KeyEscape:
		t.cancelDocIteration()
		t.pages.SwitchToPage(pageConnect)
		t.app.SetFocus(t.connectForm)
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'j', 'J':
			t.showCurrentDoc()
			return nil
		case 'q', 'Q', '/':
			t.queryBuilder.show()
			return nil
		case 'a', 'A':
			go t.loadAllDocs()
			return nil
		case 'i', 'I':
			if t.database != nil {
				t.showJSON(fmt.Sprintf("Database %s", t.database.Name), t.database)
			}
			return nil
		}
	}
	return event
}

func (t *TUI) showCurrentDoc() {
	index := t.docsList.GetCurrentItem()
	if index < 0 || index >= len(t.docs) {
		return
	}
	t.jsonViewer.ShowDoc(t.docs[index])
}
