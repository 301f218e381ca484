package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kakeibo/internal/core"
	"kakeibo/internal/recurrence"
)

func newFixedCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixed",
		Short: "Recurring fixed costs",
	}
	cmd.AddCommand(newExpandCommand(opts))
	return cmd
}

func newExpandCommand(opts *rootOptions) *cobra.Command {
	var id, from, to string
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "List the occurrences of a fixed cost between two dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				return errors.New("--id is required")
			}
			return opts.withApp(cmd, func(app *App) error {
				win, err := expandWindow(app.Reports.Today(), from, to)
				if err != nil {
					return err
				}
				fc, err := app.Ledger.GetFixedCost(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("fixed cost %s: %w", id, err)
				}

				var occs []core.Occurrence
				for _, o := range recurrence.Expand(fc, win) {
					if win.Contains(o.Date) {
						occs = append(occs, o)
					}
				}
				PrintOccurrences(cmd.OutOrStdout(), fc, occs, app.Currency)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Fixed cost id")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD (default: start of this year)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD (default: end of this year)")
	return cmd
}

func expandWindow(today core.Date, from, to string) (core.Window, error) {
	win := core.Window{Start: core.NewDate(today.Year, 1, 1), End: core.NewDate(today.Year, 12, 31)}
	if from != "" {
		d, err := core.ParseDate(from)
		if err != nil {
			return core.Window{}, fmt.Errorf("--from: %w", err)
		}
		win.Start = d
	}
	if to != "" {
		d, err := core.ParseDate(to)
		if err != nil {
			return core.Window{}, fmt.Errorf("--to: %w", err)
		}
		win.End = d
	}
	if win.End.Before(win.Start) {
		return core.Window{}, errors.New("--to is before --from")
	}
	return win, nil
}
