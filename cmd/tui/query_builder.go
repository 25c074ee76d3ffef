package main

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-couch-client/cmd/tui/formatting"
	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
	"github.com/robert-malhotra/go-couch-client/pkg/mango"
)

const pageQueryBuilder = "queryBuilder"

var queryOperators = []mango.BinaryOp{
	mango.BinaryEqual,
	mango.BinaryNotEqual,
	mango.BinaryGreaterThan,
	mango.BinaryGreaterThanOrEqual,
	mango.BinaryLessThan,
	mango.BinaryLessThanOrEqual,
}

// queryCondition is one field comparison added through the form.
type queryCondition struct {
	field    string
	operator mango.BinaryOp
	value    any
}

func (c queryCondition) predicate() mango.Predicate[couch.DynamicDoc] {
	return mango.Where[couch.DynamicDoc](mango.Field(c.field).Op(c.operator, c.value))
}

func (c queryCondition) String() string {
	return c.predicate().String()
}

// parseValue reads a form value as JSON when possible, so 5, true and null
// keep their types. Numbers stay json.Number so integers reach the selector
// as integers. Anything else is taken as a plain string.
func parseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

// buildSelector merges the conditions and the optional free-text predicate
// into one selector.
func buildSelector(conditions []queryCondition, where string) (mango.Selector, error) {
	entries := make([]mango.Entry, 0, len(conditions)+1)
	for _, cond := range conditions {
		entry, err := mango.Analyze(cond.predicate())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if where = strings.TrimSpace(where); where != "" {
		pred, err := mango.ParseWhere[couch.DynamicDoc](where)
		if err != nil {
			return nil, err
		}
		entry, err := mango.Analyze(pred)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return mango.NewSelector(entries...)
}

// findSeq pages through _find results by bookmark.
func findSeq(ctx context.Context, c *client.Client[couch.DynamicDoc], sel mango.Selector, pageSize int) iter.Seq2[couch.DynamicDoc, error] {
	return func(yield func(couch.DynamicDoc, error) bool) {
		opts := &couch.FindOptions{Limit: couch.Ptr(pageSize)}
		for {
			page, err := c.FindPage(ctx, sel, opts)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, doc := range page.Docs {
				if !yield(doc, nil) {
					return
				}
			}
			if len(page.Docs) < pageSize || page.Bookmark == "" || page.Bookmark == opts.Bookmark {
				return
			}
			opts.Bookmark = page.Bookmark
		}
	}
}

// queryBuilder manages the predicate query UI.
type queryBuilder struct {
	tui *TUI

	fieldInput       *tview.InputField
	operatorDropdown *tview.DropDown
	valueInput       *tview.InputField
	whereInput       *tview.InputField
	conditionsList   *tview.List
	previewText      *tview.TextView

	conditions []queryCondition
}

func newQueryBuilder(t *TUI) *queryBuilder {
	return &queryBuilder{tui: t}
}

func (t *TUI) setupQueryBuilderPage() {
	if t.queryBuilder == nil {
		t.queryBuilder = newQueryBuilder(t)
	}
	t.queryBuilder.setup()
}

func (qb *queryBuilder) setup() {
	qb.previewText = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	qb.previewText.SetBorder(true).SetTitle("Mango Selector Preview")

	qb.fieldInput = tview.NewInputField().
		SetLabel("Field: ").
		SetFieldWidth(30).
		SetPlaceholder("e.g. year or address.city")
	qb.fieldInput.SetChangedFunc(func(string) { qb.updatePreview() })

	ops := make([]string, len(queryOperators))
	for i, op := range queryOperators {
		ops[i] = op.String()
	}
	qb.operatorDropdown = tview.NewDropDown().
		SetLabel("Operator: ").
		SetFieldWidth(6).
		SetOptions(ops, func(string, int) { qb.updatePreview() })
	qb.operatorDropdown.SetCurrentOption(0)

	qb.valueInput = tview.NewInputField().
		SetLabel("Value: ").
		SetFieldWidth(30).
		SetPlaceholder(`JSON (5, true, "x") or text`)
	qb.valueInput.SetChangedFunc(func(string) { qb.updatePreview() })

	qb.whereInput = tview.NewInputField().
		SetLabel("Where: ").
		SetFieldWidth(50).
		SetPlaceholder(`predicate, e.g. title.contains("Star")`)
	qb.whereInput.SetChangedFunc(func(string) { qb.updatePreview() })

	qb.conditionsList = tview.NewList()
	qb.conditionsList.SetBorder(true).SetTitle("Conditions (0)")
	qb.conditionsList.ShowSecondaryText(false)
	qb.conditionsList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		qb.removeCondition(index)
	})

	qb.buildLayout()
}

func (qb *queryBuilder) buildLayout() {
	conditionForm := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(qb.fieldInput, 1, 0, true).
		AddItem(qb.operatorDropdown, 1, 0, false).
		AddItem(qb.valueInput, 1, 0, false).
		AddItem(qb.whereInput, 1, 0, false)
	conditionForm.SetBorder(true).SetTitle("Add Condition")

	leftPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(conditionForm, 6, 0, true).
		AddItem(qb.conditionsList, 0, 1, false)

	mainContent := tview.NewFlex().
		AddItem(leftPanel, 0, 1, true).
		AddItem(qb.previewText, 0, 1, false)

	addBtn := tview.NewButton("Add Condition").SetSelectedFunc(qb.addCondition)
	clearBtn := tview.NewButton("Clear All").SetSelectedFunc(qb.clearConditions)
	runBtn := tview.NewButton("Run Query").SetSelectedFunc(qb.runQuery)
	cancelBtn := tview.NewButton("Cancel").SetSelectedFunc(qb.cancel)

	buttonFlex := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(addBtn, 16, 0, false).
		AddItem(nil, 2, 0, false).
		AddItem(clearBtn, 12, 0, false).
		AddItem(nil, 2, 0, false).
		AddItem(runBtn, 12, 0, false).
		AddItem(nil, 2, 0, false).
		AddItem(cancelBtn, 10, 0, false).
		AddItem(nil, 0, 1, false)

	help := formatting.MakeHelpText("[yellow]Tab[white] switch focus  [yellow]Enter[white] add condition  [yellow]Ctrl+R[white] run  [yellow]Ctrl+L[white] clear  [yellow]Esc[white] cancel")

	page := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 1, true).
		AddItem(buttonFlex, 1, 0, false).
		AddItem(help, 3, 0, false)

	page.SetInputCapture(qb.handleInput)

	qb.tui.pages.AddPage(pageQueryBuilder, page, true, false)
}

func (qb *queryBuilder) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if qb.operatorDropdown.HasFocus() && event.Key() != tcell.KeyEscape && event.Key() != tcell.KeyTab && event.Key() != tcell.KeyBacktab {
		return event
	}

	switch event.Key() {
	case tcell.KeyEscape:
		qb.cancel()
		return nil
	case tcell.KeyTab:
		qb.cycleFocus(1)
		return nil
	case tcell.KeyBacktab:
		qb.cycleFocus(-1)
		return nil
	case tcell.KeyCtrlR:
		qb.runQuery()
		return nil
	case tcell.KeyCtrlL:
		qb.clearConditions()
		return nil
	case tcell.KeyEnter:
		if qb.fieldInput.HasFocus() || qb.valueInput.HasFocus() {
			qb.addCondition()
			return nil
		}
		if qb.whereInput.HasFocus() {
			qb.runQuery()
			return nil
		}
	}
	return event
}

func (qb *queryBuilder) cycleFocus(direction int) {
	focusables := []tview.Primitive{
		qb.fieldInput,
		qb.operatorDropdown,
		qb.valueInput,
		qb.whereInput,
		qb.conditionsList,
	}

	current := -1
	for i, p := range focusables {
		if p.HasFocus() {
			current = i
			break
		}
	}
	if current == -1 {
		qb.tui.app.SetFocus(focusables[0])
		return
	}

	next := (current + direction + len(focusables)) % len(focusables)
	qb.tui.app.SetFocus(focusables[next])
}

func (qb *queryBuilder) show() {
	qb.updateConditionsList()
	qb.updatePreview()
	qb.tui.pages.ShowPage(pageQueryBuilder)
	qb.tui.app.SetFocus(qb.fieldInput)
}

// pending returns the condition currently typed into the form, if complete.
func (qb *queryBuilder) pending() (queryCondition, bool) {
	field := strings.TrimSpace(qb.fieldInput.GetText())
	value := strings.TrimSpace(qb.valueInput.GetText())
	if field == "" || value == "" {
		return queryCondition{}, false
	}
	idx, _ := qb.operatorDropdown.GetCurrentOption()
	if idx < 0 || idx >= len(queryOperators) {
		idx = 0
	}
	return queryCondition{field: field, operator: queryOperators[idx], value: parseValue(value)}, true
}

func (qb *queryBuilder) addCondition() {
	cond, ok := qb.pending()
	if !ok {
		qb.tui.showError("Please enter a field and a value")
		return
	}
	if _, err := mango.Analyze(cond.predicate()); err != nil {
		qb.tui.showError(err.Error())
		return
	}

	qb.conditions = append(qb.conditions, cond)
	qb.fieldInput.SetText("")
	qb.valueInput.SetText("")

	qb.updateConditionsList()
	qb.updatePreview()
}

func (qb *queryBuilder) removeCondition(index int) {
	if index < 0 || index >= len(qb.conditions) {
		return
	}
	qb.conditions = append(qb.conditions[:index], qb.conditions[index+1:]...)
	qb.updateConditionsList()
	qb.updatePreview()
}

func (qb *queryBuilder) clearConditions() {
	qb.conditions = nil
	qb.whereInput.SetText("")
	qb.updateConditionsList()
	qb.updatePreview()
}

func (qb *queryBuilder) updateConditionsList() {
	qb.conditionsList.Clear()
	qb.conditionsList.SetTitle(fmt.Sprintf("Conditions (%d)", len(qb.conditions)))

	if len(qb.conditions) == 0 {
		qb.conditionsList.AddItem("[gray](no conditions yet)[white]", "", 0, nil)
		return
	}
	for i, cond := range qb.conditions {
		qb.conditionsList.AddItem(fmt.Sprintf("%d. %s", i+1, tview.Escape(cond.String())), "", 0, nil)
	}
	qb.conditionsList.AddItem("[gray](select to remove)[white]", "", 0, nil)
}

// updatePreview renders the selector for the added conditions, the where
// text and the condition still being typed.
func (qb *queryBuilder) updatePreview() {
	conditions := qb.conditions
	if cond, ok := qb.pending(); ok {
		conditions = append(append([]queryCondition(nil), conditions...), cond)
	}
	where := qb.whereInput.GetText()

	if len(conditions) == 0 && strings.TrimSpace(where) == "" {
		qb.previewText.SetText("[gray]No conditions added yet; running the query matches every document[white]")
		return
	}

	sel, err := buildSelector(conditions, where)
	if err != nil {
		qb.previewText.SetText("[red]" + tview.Escape(err.Error()) + "[white]")
		return
	}
	pretty, err := formatting.FormatSelector(sel)
	if err != nil {
		qb.previewText.SetText("[red]" + tview.Escape(err.Error()) + "[white]")
		return
	}
	qb.previewText.SetText("[green]" + tview.Escape(pretty) + "[white]")
}

func (qb *queryBuilder) runQuery() {
	if qb.tui.client == nil {
		qb.tui.showError("Connect to a database first.")
		return
	}
	sel, err := buildSelector(qb.conditions, qb.whereInput.GetText())
	if err != nil {
		qb.tui.showError(err.Error())
		return
	}

	label := "all documents"
	if fields := sel.Fields(); len(fields) > 0 {
		label = "query on " + strings.Join(fields, ", ")
	}
	qb.tui.pages.HidePage(pageQueryBuilder)
	qb.tui.pages.SwitchToPage(pageDocs)
	qb.tui.app.SetFocus(qb.tui.docsList)

	if len(sel) == 0 {
		go qb.tui.loadAllDocs()
		return
	}
	go func() {
		qb.tui.resetDocsList()
		ctx, cancel := context.WithCancel(qb.tui.baseCtx)
		qb.tui.startDocStream(label, findSeq(ctx, qb.tui.client, sel, qb.tui.pageSize), cancel)
	}()
}

func (qb *queryBuilder) cancel() {
	qb.tui.pages.HidePage(pageQueryBuilder)
	qb.tui.app.SetFocus(qb.tui.docsList)
}
