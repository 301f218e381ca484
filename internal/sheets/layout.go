package sheets

import (
	"fmt"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
)

// maxTabName is the shortest tab name limit among the supported backends (xlsx).
const maxTabName = 31

// Header is the column header of a breakdown table.
var Header = []any{"Category", "Total", "Share", "Ratio", "Split", "Percent"}

// TabName names the tab holding r, e.g. "2024-05 Hana".
func TabName(r report.Report, roster core.Roster) string {
	name := r.Period.String() + " " + roster.Name(r.Viewer)
	name = strings.Map(func(c rune) rune {
		if strings.ContainsRune(`[]:*?/\'`, c) {
			return '_'
		}
		return c
	}, name)
	if len(name) > maxTabName {
		name = name[:maxTabName]
	}
	return strings.TrimSpace(name)
}

// Rows lays r out as a grid of cells. Amounts stay integers in the minor unit.
func Rows(r report.Report, roster core.Roster) [][]any {
	rows := [][]any{
		{"Period", r.Period.String()},
		{"Viewer", roster.Name(r.Viewer)},
		{},
	}
	rows = appendBreakdown(rows, "Expense", r.Expense)
	rows = append(rows, []any{})
	rows = appendBreakdown(rows, "Income", r.Income)
	rows = append(rows,
		[]any{},
		[]any{"Total income", r.TotalIncome},
		[]any{"Total expense", r.TotalExpense},
		[]any{"Net balance", r.NetBalance},
		[]any{"Settlement", r.Settlement.String()},
	)
	return rows
}

func appendBreakdown(rows [][]any, title string, b report.Breakdown) [][]any {
	rows = append(rows, []any{title}, Header)
	for _, c := range b.Categories {
		rows = append(rows, []any{c.Name, c.Total, c.Adjusted, c.Ratio, c.Split, fmt.Sprintf("%.1f%%", c.Percent)})
	}
	return append(rows, []any{"Total " + strings.ToLower(title), "", b.Total})
}
