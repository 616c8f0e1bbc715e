package http

import (
	"html/template"
	"strings"

	"fintrack/internal/core"
)

// sanitizeInput removes control characters except tab, newline and
// carriage return. Whitespace is kept as entered.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// templateFuncs are available to the dashboard template.
var templateFuncs = template.FuncMap{
	"money":    core.FormatMoney,
	"isIncome": core.TransactionType.IsIncome,
}

// entryView is the JSON shape of a listed transaction.
type entryView struct {
	Index       int    `json:"index"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

func toEntryView(e core.Entry) entryView {
	return entryView{
		Index:       e.Index,
		Type:        e.Transaction.Type.String(),
		Description: e.Transaction.Description,
		Amount:      e.Transaction.Amount.String(),
		Date:        e.Transaction.Date,
	}
}

func toEntryViews(entries []core.Entry) []entryView {
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryView(e))
	}
	return out
}

// summaryView is the JSON shape of /api/summary.
type summaryView struct {
	core.Totals
	Filter string `json:"filter"`
}
