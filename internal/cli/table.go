package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"kakeibo/internal/core"
	"kakeibo/internal/ratio"
	"kakeibo/internal/recurrence"
	"kakeibo/internal/report"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func amountColumns(numbers ...int) []table.ColumnConfig {
	cfg := make([]table.ColumnConfig, 0, len(numbers))
	for _, n := range numbers {
		cfg = append(cfg, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	return cfg
}

// PrintReport writes r as two breakdown tables followed by the totals and
// the settlement line.
func PrintReport(w io.Writer, r report.Report, roster core.Roster, cur Currency) {
	fmt.Fprintf(w, "%s  %s\n\n", r.Period, roster.Name(r.Viewer))
	printBreakdown(w, "Expense", r.Expense, cur)
	fmt.Fprintln(w)
	printBreakdown(w, "Income", r.Income, cur)
	fmt.Fprintln(w)

	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Total income", cur.Format(r.TotalIncome)},
		{"Total expense", cur.Format(r.TotalExpense)},
		{"Net balance", cur.Format(r.NetBalance)},
	})
	t.SetColumnConfigs(amountColumns(2))
	t.Render()

	fmt.Fprintf(w, "\n%s\n", r.Settlement.Message(cur.Format))
}

func printBreakdown(w io.Writer, title string, b report.Breakdown, cur Currency) {
	fmt.Fprintln(w, strings.ToUpper(title))
	if len(b.Categories) == 0 {
		fmt.Fprintln(w, "  No entries.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "Total", "Share", "Ratio", "Split", "%"})
	for _, c := range b.Categories {
		t.AppendRow(table.Row{c.Name, cur.Format(c.Total), cur.Format(c.Adjusted), c.Ratio, split(c, cur), fmt.Sprintf("%.1f", c.Percent)})
	}
	t.AppendFooter(table.Row{"Total", "", cur.Format(b.Total)})
	t.SetColumnConfigs(amountColumns(2, 3, 6))
	t.Render()
}

// split re-renders the per-party shares with currency formatting.
func split(c report.CategoryTotal, cur Currency) string {
	shares, ok := ratio.Split(c.Total, c.Ratio)
	if !ok || c.Split == "" {
		return ""
	}
	return shares.Format(cur.Format)
}

// PrintOccurrences lists the occurrences of one fixed cost with the revision
// period each falls in.
func PrintOccurrences(w io.Writer, fc core.FixedCost, occs []core.Occurrence, cur Currency) {
	fmt.Fprintf(w, "%s  %s  %s from %s\n\n", fc.ID, fc.CategoryID, fc.Frequency, fc.Date)
	if len(occs) == 0 {
		fmt.Fprintln(w, "  No occurrences in range.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Amount"})
	var total int64
	for _, o := range occs {
		t.AppendRow(table.Row{o.Date.String(), cur.Format(o.Amount.Minor)})
		total += o.Amount.Minor
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d occurrences", len(occs)), cur.Format(total)})
	t.SetColumnConfigs(amountColumns(2))
	t.Render()

	if periods := recurrence.Periods(fc, occs[len(occs)-1].Date); len(periods) > 1 {
		fmt.Fprintln(w)
		pt := newTable(w)
		pt.AppendHeader(table.Row{"From", "To", "Amount"})
		for _, p := range periods {
			if p.End.Before(p.Start) {
				continue
			}
			pt.AppendRow(table.Row{p.Start.String(), p.End.String(), cur.Format(p.Amount.Minor)})
		}
		pt.SetColumnConfigs(amountColumns(3))
		pt.Render()
	}
}
