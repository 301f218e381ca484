package sheets

import (
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
)

var roster = core.NewRoster(core.Party{ID: "u1", Name: "Hana"}, core.Party{ID: "u2", Name: "Seiji"})

func TestTabName(t *testing.T) {
	tests := []struct {
		name   string
		report report.Report
		want   string
	}{
		{"monthly", report.Report{Period: report.MonthOf(2024, 5), Viewer: "u1"}, "2024-05 Hana"},
		{"yearly", report.Report{Period: report.YearOf(2024), Viewer: "u2"}, "2024 Seiji"},
		{"unknown viewer", report.Report{Period: report.YearOf(2024), Viewer: "a/b"}, "2024 a_b"},
		{"truncated", report.Report{Period: report.YearOf(2024), Viewer: "someone-with-a-very-long-identifier"}, "2024 someone-with-a-very-long-i"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TabName(tt.report, roster); got != tt.want {
				t.Errorf("TabName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRows(t *testing.T) {
	r := report.Report{
		Period: report.MonthOf(2024, 5),
		Viewer: "u1",
		Expense: report.Breakdown{
			Categories: []report.CategoryTotal{{Key: "food", Name: "Food", Total: 1000, Adjusted: 500, Ratio: "1:1", Split: "500 / 500", Percent: 100}},
			Total:      500,
		},
		TotalExpense: 500,
		NetBalance:   -500,
	}
	rows := Rows(r, roster)

	if rows[1][1] != "Hana" {
		t.Errorf("viewer cell = %v", rows[1][1])
	}
	var found bool
	for _, row := range rows {
		if len(row) == 6 && row[0] == "Food" {
			found = true
			if row[1] != int64(1000) || row[2] != int64(500) || row[5] != "100.0%" {
				t.Errorf("food row = %v", row)
			}
		}
	}
	if !found {
		t.Fatal("food row missing")
	}
	last := rows[len(rows)-1]
	if last[0] != "Settlement" || last[1] != "All settled" {
		t.Errorf("last row = %v", last)
	}
}
