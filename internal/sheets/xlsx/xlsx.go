// Package xlsx exports reports into a local Excel workbook, one sheet per
// period and viewer.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
	ports "kakeibo/internal/sheets"
)

const (
	defaultSheet = "Sheet1"
	scratchSheet = "_export"
)

type Exporter struct {
	path   string
	roster core.Roster
	mu     sync.Mutex
}

var _ ports.ReportExporter = (*Exporter)(nil)

// New returns an exporter writing to the workbook at path. The file is
// created on the first export.
func New(path string, roster core.Roster) *Exporter {
	return &Exporter{path: path, roster: roster}
}

func (e *Exporter) Path() string {
	return e.path
}

// ExportReport replaces the report's sheet and saves the workbook.
func (e *Exporter) ExportReport(ctx context.Context, r report.Report) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, fresh, err := e.open()
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := ports.TabName(r, e.roster)
	if _, err := f.NewSheet(scratchSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := writeRows(f, scratchSheet, ports.Rows(r, e.roster)); err != nil {
		return err
	}
	// the previous export of this tab, and the default sheet of a new workbook
	stale := []string{sheet}
	if fresh {
		stale = append(stale, defaultSheet)
	}
	for _, name := range stale {
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			continue
		}
		if err := f.DeleteSheet(name); err != nil {
			return fmt.Errorf("delete sheet %s: %w", name, err)
		}
	}
	if err := f.SetSheetName(scratchSheet, sheet); err != nil {
		return fmt.Errorf("rename sheet %s: %w", sheet, err)
	}
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	slog.InfoContext(ctx, "Exported report to workbook",
		"path", e.path,
		"sheet", sheet)
	return nil
}

func (e *Exporter) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(e.path)
	if err == nil {
		return f, false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	return nil, false, fmt.Errorf("open workbook: %w", err)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if len(row) == 1 {
			// section title
			if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
				return fmt.Errorf("style row %d: %w", i+1, err)
			}
		}
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}
