package memory

import (
	"context"
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
)

func TestStoreKeepsLatestPerTab(t *testing.T) {
	s := New(core.NewRoster(core.Party{ID: "u1", Name: "Hana"}, core.Party{ID: "u2", Name: "Seiji"}))
	ctx := context.Background()

	_ = s.ExportReport(ctx, report.Report{Period: report.MonthOf(2024, 5), Viewer: "u1", NetBalance: 1})
	_ = s.ExportReport(ctx, report.Report{Period: report.MonthOf(2024, 5), Viewer: "u1", NetBalance: 2})
	_ = s.ExportReport(ctx, report.Report{Period: report.YearOf(2024), Viewer: "u2"})

	tabs := s.Tabs()
	if len(tabs) != 2 || tabs[0] != "2024 Seiji" || tabs[1] != "2024-05 Hana" {
		t.Fatalf("Tabs() = %v", tabs)
	}
	r, ok := s.Report("2024-05 Hana")
	if !ok || r.NetBalance != 2 {
		t.Errorf("Report() = %+v, %v", r, ok)
	}
	if s.Exports() != 3 {
		t.Errorf("Exports() = %d", s.Exports())
	}
}
