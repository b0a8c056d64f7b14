package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"vehicle-marketplace/client"
	"vehicle-marketplace/models"
	"vehicle-marketplace/render"
	"vehicle-marketplace/services"
)

func newFavoritesCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"saved"},
		Short:   "Manage saved listings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := a.api.MyFavorites(cmd.Context())
			if err != nil {
				return err
			}
			dash := services.NewDashboardService(a.api, a.normalizer, a.insights, a.logger)
			render.ListingTable(a.out, dash.SavedListings(favs))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <listing-id>",
		Short: "Unsave a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.RemoveFavorite(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s from saved listings.\n", args[0])
			return nil
		},
	}

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Unsave every listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := a.api.MyFavorites(cmd.Context())
			if err != nil {
				return err
			}
			dash := services.NewDashboardService(a.api, a.normalizer, a.insights, a.logger)
			var ids []string
			for _, l := range dash.SavedListings(favs) {
				if l.ID != "" {
					ids = append(ids, l.ID)
				}
			}
			if len(ids) == 0 {
				fmt.Fprintln(a.out, "No saved listings.")
				return nil
			}
			if err := a.api.ClearFavorites(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %d saved listing(s).\n", len(ids))
			return nil
		},
	}

	cmd.AddCommand(list, remove, clearAll)
	return cmd
}

func newAlertsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage price alerts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts, err := a.api.ListAlerts(cmd.Context())
			if err != nil {
				return err
			}
			render.AlertTable(a.out, alerts)
			return nil
		},
	}

	var draft models.Alert
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an alert for a make, optional model and price range",
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.ActiveStatus = true
			if err := services.ValidateAlert(draft); err != nil {
				return err
			}
			created, err := a.api.CreateAlert(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Alert %s created for %s %s.\n", created.ID, created.Make, created.Model)
			return nil
		},
	}
	create.Flags().StringVar(&draft.Make, "make", "", "vehicle make (required)")
	create.Flags().StringVar(&draft.Model, "model", "", "vehicle model")
	create.Flags().Float64Var(&draft.MinPrice, "min-price", 0, "lowest price, 0 for no bound")
	create.Flags().Float64Var(&draft.MaxPrice, "max-price", 0, "highest price, 0 for no bound")

	toggle := &cobra.Command{
		Use:   "toggle <alert-id>",
		Short: "Pause or resume an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts, err := a.api.ListAlerts(cmd.Context())
			if err != nil {
				return err
			}
			for _, al := range alerts {
				if al.ID != args[0] {
					continue
				}
				al.ActiveStatus = !al.ActiveStatus
				updated, err := a.api.UpdateAlert(cmd.Context(), al)
				if err != nil {
					return err
				}
				state := "paused"
				if updated.ActiveStatus {
					state = "active"
				}
				fmt.Fprintf(a.out, "Alert %s is now %s.\n", al.ID, state)
				return nil
			}
			return fmt.Errorf("alert %s not found", args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete <alert-id>",
		Short: "Delete an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteAlert(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Alert %s deleted.\n", args[0])
			return nil
		},
	}

	var (
		spec string
		once bool
	)
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Check active alerts against new listings on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec == "" {
				spec = a.cfg.AlertWatchSpec
			}
			src, err := a.listingSource(a.cfg.ListingSource)
			if err != nil {
				return err
			}
			notify := func(m services.AlertMatch) {
				fmt.Fprintf(a.out, "[alert %s] %s | %s | %s\n",
					m.Alert.ID, m.Listing.Title, render.Price(m.Listing), m.Listing.ID)
			}
			watcher := services.NewAlertWatcher(spec, src, a.api, a.normalizer, notify, a.logger)

			if once {
				n, err := watcher.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%d matching listing(s).\n", n)
				return nil
			}

			if !a.sessions.IsAuthenticated() {
				return client.ErrAuthRequired
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			events := a.sessions.Subscribe(ctx)
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Watching alerts (%s). Press Ctrl+C to stop.\n", spec)

			// a logout or a rejected token ends the watch
			ended := false
			for !ended && ctx.Err() == nil {
				select {
				case <-ctx.Done():
				case ev, ok := <-events:
					ended = ok && !ev.Authenticated
				}
			}
			watcher.Stop()
			if ended {
				return fmt.Errorf("alert watcher stopped: %w", client.ErrAuthRequired)
			}
			return nil
		},
	}
	watch.Flags().StringVar(&spec, "every", "", "cron schedule, e.g. \"@every 15m\" (default from ALERT_WATCH_SPEC)")
	watch.Flags().BoolVar(&once, "once", false, "run a single check and exit")

	cmd.AddCommand(list, create, toggle, del, watch)
	return cmd
}

func newProfileCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(a, p)
			return nil
		},
	}

	var (
		update models.Profile
		image  string
	)
	edit := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields; omitted flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.api.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			f := cmd.Flags()
			for _, field := range []struct {
				flag string
				dst  *string
				src  string
			}{
				{"first-name", &current.FirstName, update.FirstName},
				{"last-name", &current.LastName, update.LastName},
				{"email", &current.Email, update.Email},
				{"phone", &current.ContactNumber, update.ContactNumber},
				{"address", &current.Address, update.Address},
				{"city", &current.City, update.City},
				{"state", &current.State, update.State},
				{"zip", &current.ZipCode, update.ZipCode},
			} {
				if f.Changed(field.flag) {
					*field.dst = field.src
				}
			}
			if err := a.api.UpdateProfile(cmd.Context(), current, image); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Profile updated.")
			return nil
		},
	}
	ef := edit.Flags()
	ef.StringVar(&update.FirstName, "first-name", "", "first name")
	ef.StringVar(&update.LastName, "last-name", "", "last name")
	ef.StringVar(&update.Email, "email", "", "email")
	ef.StringVar(&update.ContactNumber, "phone", "", "contact number")
	ef.StringVar(&update.Address, "address", "", "street address")
	ef.StringVar(&update.City, "city", "", "city")
	ef.StringVar(&update.State, "state", "", "state or province")
	ef.StringVar(&update.ZipCode, "zip", "", "postal code")
	ef.StringVar(&image, "image", "", "profile picture to upload")

	cmd.AddCommand(show, edit)
	return cmd
}

func printProfile(a *App, p models.Profile) {
	fmt.Fprintf(a.out, "Name:    %s %s\n", p.FirstName, p.LastName)
	fmt.Fprintf(a.out, "Email:   %s\n", p.Email)
	fmt.Fprintf(a.out, "Phone:   %s\n", orNone(p.ContactNumber))
	fmt.Fprintf(a.out, "Address: %s\n", orNone(joinNonEmpty(p.Address, p.City, p.State, p.ZipCode)))
	if p.ProfileImage != "" {
		fmt.Fprintf(a.out, "Image:   %s\n", a.normalizer.ResolveImageURL(p.ProfileImage))
	}
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
