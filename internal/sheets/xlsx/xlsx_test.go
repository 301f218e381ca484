package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
)

var roster = core.NewRoster(core.Party{ID: "u1", Name: "Hana"}, core.Party{ID: "u2", Name: "Seiji"})

func TestExportReport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.xlsx")
	e := New(path, roster)

	may := report.Report{
		Period: report.MonthOf(2024, 5),
		Viewer: "u1",
		Expense: report.Breakdown{
			Categories: []report.CategoryTotal{{Key: "food", Name: "Food", Total: 1000, Adjusted: 500, Ratio: "1:1", Percent: 100}},
			Total:      500,
		},
		TotalExpense: 500,
		NetBalance:   -500,
	}
	if err := e.ExportReport(ctx, may); err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	year := report.Report{Period: report.YearOf(2024), Viewer: "u2"}
	if err := e.ExportReport(ctx, year); err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	// re-export replaces the sheet instead of adding another
	may.NetBalance = -700
	if err := e.ExportReport(ctx, may); err != nil {
		t.Fatalf("ExportReport: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows("2024-05 Hana")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if rows[0][1] != "2024-05" || rows[1][1] != "Hana" {
		t.Errorf("header rows = %v", rows[:2])
	}
	var food, net bool
	for _, row := range rows {
		if len(row) >= 3 && row[0] == "Food" {
			food = row[1] == "1000" && row[2] == "500"
		}
		if len(row) >= 2 && row[0] == "Net balance" {
			net = row[1] == "-700"
		}
	}
	if !food {
		t.Error("food row missing or wrong")
	}
	if !net {
		t.Error("net balance not updated on re-export")
	}
}

func TestExportReportBadPath(t *testing.T) {
	e := New(filepath.Join(t.TempDir(), "missing-dir", "r.xlsx"), roster)
	if err := e.ExportReport(context.Background(), report.Report{Period: report.YearOf(2024)}); err == nil {
		t.Fatal("expected save error")
	}
}
