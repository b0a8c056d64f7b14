package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vehicle-marketplace/config"
	"vehicle-marketplace/render"
	"vehicle-marketplace/server"
	"vehicle-marketplace/services"
	"vehicle-marketplace/storage"
)

func newDashboardCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your listings, saved vehicles and alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := services.NewDashboardService(a.api, a.normalizer, a.insights, a.logger)
			ov, err := dash.Overview(cmd.Context())
			if err != nil {
				return err
			}

			a.insights.Print(a.out, "My Listings", ov.Stats)

			fmt.Fprintf(a.out, "Saved vehicles (%d)\n", len(ov.Saved))
			render.ListingTable(a.out, ov.Saved)

			fmt.Fprintf(a.out, "\nAlerts (%d active of %d)\n", ov.ActiveAlerts, len(ov.Alerts))
			render.AlertTable(a.out, ov.Alerts)
			return nil
		},
	}
}

func newAdminCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator views",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if !a.sessions.IsAuthenticated() {
				return errors.New("login required: run `marketplace login` first")
			}
			if !a.sessions.IsAdmin() {
				return errors.New("admin role required")
			}
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Listing counts by moderation status, prices and makes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.Catalogue()
			if err != nil {
				return err
			}
			all, err := cat.All(cmd.Context())
			if err != nil {
				return err
			}
			a.insights.Print(a.out, "Admin Overview", a.insights.Generate(all))
			return nil
		},
	}

	cmd.AddCommand(stats)
	return cmd
}

func newServeCmd(a *App) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only view server (search, compare, PDF export)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.ServerPort
			}
			cat, err := a.Catalogue()
			if err != nil {
				return err
			}

			var pdf server.PDFRenderer
			if r := render.NewPDFRenderer(a.cfg.ChromeBin, a.logger); r.Available() {
				pdf = r
			} else {
				a.logger.Warn("no Chrome binary found, PDF export disabled")
			}

			srv := server.NewServer(port, a.cfg.CORSOrigins, cat, pdf, a.logger)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from SERVER_PORT)")
	return cmd
}

func newSeedCmd(a *App) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the PostgreSQL snapshot with listings from another source",
		Long: `Normalizes the listings of the --from source (mock or api) and writes them
to the vehicle_listings table used by --source postgres.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == config.SourcePostgres {
				return fmt.Errorf("cannot seed postgres from itself")
			}
			src, err := a.listingSource(from)
			if err != nil {
				return err
			}
			raw, err := src.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch listings: %w", err)
			}
			listings := a.normalizer.NormalizeAll(raw)

			pg, err := a.openPostgres()
			if err != nil {
				return err
			}
			if err := pg.Write(listings); err != nil {
				return err
			}
			a.logger.Info("snapshot seeded", "from", from, "listings", len(listings))
			fmt.Fprintf(a.out, "Seeded %d listings from %s.\n", len(listings), from)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", config.SourceMock, "source to copy: mock or api")
	return cmd
}

func newExportCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export listings",
	}

	var out, filters string
	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the (optionally filtered) listings as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := url.ParseQuery(strings.TrimPrefix(filters, "?"))
			if err != nil {
				return fmt.Errorf("parse --url: %w", err)
			}
			cat, err := a.Catalogue()
			if err != nil {
				return err
			}
			res, err := cat.Search(cmd.Context(), services.DecodeCriteria(values),
				services.ParseSortKey(values.Get(services.ParamSort)))
			if err != nil {
				return err
			}

			if out == "" {
				out = a.cfg.CSVOutputPath
			}
			var w storage.ListingWriter
			if out == "-" {
				w, err = storage.NewCSVStream(a.out)
			} else {
				w, err = storage.NewCSVWriter(out)
			}
			if err != nil {
				return err
			}
			if err := w.Write(res.Listings); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			if out != "-" {
				fmt.Fprintf(a.out, "Wrote %d listings to %s\n", len(res.Listings), out)
			}
			return nil
		},
	}
	csvCmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default from CSV_OUTPUT_PATH)")
	csvCmd.Flags().StringVar(&filters, "url", "", "only export listings matching this search query string")

	cmd.AddCommand(csvCmd)
	return cmd
}
