package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vehicle-marketplace/client"
	"vehicle-marketplace/config"
	"vehicle-marketplace/services"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	a := newApp(os.Stdout, os.Stdin)
	root := newRootCommand(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		return 1
	}
	return 0
}

func newRootCommand(a *App) *cobra.Command {
	var (
		sourceFlag string
		levelFlag  string
		apiFlag    string
	)

	root := &cobra.Command{
		Use:   "marketplace",
		Short: "Search, compare and sell vehicles on the marketplace",
		Long: `marketplace is a command-line client for the vehicle marketplace API.

Browse and filter the public listings, compare up to four vehicles side by
side, manage your own listings, saved vehicles and price alerts, or run the
read-only view server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.ready() {
				return nil
			}
			cfg := config.Load()
			if sourceFlag != "" {
				cfg.ListingSource = sourceFlag
			}
			if levelFlag != "" {
				cfg.LogLevel = levelFlag
			}
			if apiFlag != "" {
				cfg.APIBaseURL = apiFlag
			}
			return a.init(cfg)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.Close()
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVar(&sourceFlag, "source", "", "listing source: api, mock or postgres (default from LISTING_SOURCE)")
	root.PersistentFlags().StringVar(&levelFlag, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&apiFlag, "api", "", "marketplace API base URL (default from API_BASE_URL)")

	root.AddCommand(
		newSearchCmd(a),
		newShowCmd(a),
		newCompareCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newPasswordCmd(a),
		newMineCmd(a),
		newDeleteCmd(a),
		newCreateCmd(a),
		newFavoritesCmd(a),
		newAlertsCmd(a),
		newDashboardCmd(a),
		newAdminCmd(a),
		newProfileCmd(a),
		newServeCmd(a),
		newSeedCmd(a),
		newExportCmd(a),
	)
	return root
}

// describeError turns known errors into a message for the terminal.
func describeError(err error) string {
	var (
		apiErr *client.APIError
		valErr *services.ValidationError
	)
	switch {
	case errors.Is(err, client.ErrAuthRequired):
		return "login required: run `marketplace login` first"
	case client.IsUnauthorized(err):
		return "your session has expired: run `marketplace login` again"
	case errors.As(err, &valErr):
		return fmt.Sprintf("%s (step %d)", valErr.Error(), valErr.Step)
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
