package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kakeibo/internal/log"
)

// Opener builds the App a command runs against.
type Opener func(ctx context.Context) (*App, error)

// DefaultOpener loads .env and the environment configuration and opens the
// configured backend. Logs go to stderr so tables stay clean on stdout.
func DefaultOpener(ctx context.Context) (*App, error) {
	LoadEnvFile()
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg, log.ComponentCLI, os.Stderr)
	return Open(ctx, cfg, logger)
}

type rootOptions struct {
	open Opener
	user string
}

// NewRootCommand assembles the kakeibo-cli command tree.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:           "kakeibo-cli",
		Short:         "Household ledger reports",
		Long:          "Inspect the shared household ledger: monthly and yearly reports, settlements and fixed-cost schedules.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.user, "user", "u", "", "Viewer id (default: first roster party)")

	root.AddCommand(newReportCommand(opts), newFixedCommand(opts))
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, open Opener, args []string) int {
	root := NewRootCommand(open)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// withApp opens the app for the duration of fn.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(*App) error) error {
	app, err := o.open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

// viewer resolves --user against the roster.
func (o *rootOptions) viewer(app *App) (string, error) {
	roster := app.Reports.Roster()
	if o.user == "" {
		return roster.Parties[0].ID, nil
	}
	if roster.Index(o.user) < 0 {
		return "", fmt.Errorf("unknown user %q", o.user)
	}
	return o.user, nil
}
