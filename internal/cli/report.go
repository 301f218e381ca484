package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kakeibo/internal/report"
	"kakeibo/internal/sheets/xlsx"
)

func newReportCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregated reports",
	}
	cmd.AddCommand(
		newMonthlyCommand(opts),
		newYearlyCommand(opts),
		newExportCommand(opts),
	)
	return cmd
}

func newMonthlyCommand(opts *rootOptions) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Monthly report (default: current month)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(app *App) error {
				today := app.Reports.Today()
				if year == 0 {
					year = today.Year
				}
				if month == 0 {
					month = today.Month
				}
				return runReport(cmd, opts, app, report.MonthOf(year, month))
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year")
	cmd.Flags().IntVar(&month, "month", 0, "Month, 1-12")
	return cmd
}

func newYearlyCommand(opts *rootOptions) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "Yearly report (default: current year, up to today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(app *App) error {
				if year == 0 {
					year = app.Reports.Today().Year
				}
				return runReport(cmd, opts, app, report.YearOf(year))
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year")
	return cmd
}

func runReport(cmd *cobra.Command, opts *rootOptions, app *App, period report.Period) error {
	if err := period.Validate(); err != nil {
		return err
	}
	viewer, err := opts.viewer(app)
	if err != nil {
		return err
	}
	r, err := app.Reports.Report(cmd.Context(), viewer, period)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	PrintReport(cmd.OutOrStdout(), r, app.Reports.Roster(), app.Currency)
	return nil
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		path        string
		year, month int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write reports of both parties to an xlsx workbook",
		Long: "Write the monthly and yearly reports of both parties to an xlsx workbook, " +
			"one sheet per period and party. Existing sheets of the same name are replaced.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return errors.New("--xlsx is required")
			}
			return opts.withApp(cmd, func(app *App) error {
				today := app.Reports.Today()
				if year == 0 {
					year = today.Year
				}
				periods := []report.Period{report.YearOf(year)}
				switch {
				case month != 0:
					periods = []report.Period{report.MonthOf(year, month), report.YearOf(year)}
				case year == today.Year:
					periods = []report.Period{report.MonthOf(year, today.Month), report.YearOf(year)}
				}

				roster := app.Reports.Roster()
				exporter := xlsx.New(path, roster)
				sheets := 0
				for _, p := range periods {
					if err := p.Validate(); err != nil {
						return err
					}
					for _, party := range roster.Parties {
						r, err := app.Reports.Report(cmd.Context(), party.ID, p)
						if err != nil {
							return fmt.Errorf("report %s for %s: %w", p, party.ID, err)
						}
						if err := exporter.ExportReport(cmd.Context(), r); err != nil {
							return fmt.Errorf("export %s for %s: %w", p, party.ID, err)
						}
						sheets++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sheets to %s\n", sheets, exporter.Path())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "xlsx", "", "Workbook path")
	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current year)")
	cmd.Flags().IntVar(&month, "month", 0, "Month to export with the year")
	return cmd
}
