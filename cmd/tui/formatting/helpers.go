package formatting

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rivo/tview"
)

func MakeHelpText(text string) *tview.TextView {
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignCenter).
		SetText(text)
	view.SetBorder(true).SetTitle("Controls")
	return view
}

func Slugify(input string) string {
	var builder strings.Builder
	for _, r := range input {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			builder.WriteRune(unicode.ToLower(r))
		case r == '-', r == '_':
			builder.WriteRune(r)
		case unicode.IsSpace(r), r == '/':
			builder.WriteRune('-')
		}
	}
	return strings.Trim(builder.String(), "-_")
}

func GenerateJSONFilename(title string) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "couch_doc"
	}
	return fmt.Sprintf("%s_%s.json", slug, time.Now().Format("20060102_150405"))
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
