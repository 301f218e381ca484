// Package sheets exports aggregated reports to spreadsheets.
package sheets

import (
	"context"

	"kakeibo/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportExporter writes one report, replacing any earlier export of the
	// same period and viewer.
	ReportExporter interface {
		ExportReport(ctx context.Context, r report.Report) error
	}
)
