package cli

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vehicle-marketplace/client"
	"vehicle-marketplace/models"
	"vehicle-marketplace/render"
	"vehicle-marketplace/services"
)

func newSearchCmd(a *App) *cobra.Command {
	var (
		query, sortKey, fromURL string
		makes, fuels            []string
		minPrice, maxPrice      float64
		asJSON, clearFilters    bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the public listings",
		Long: `Filters the public listings by text, make, fuel type and price range and
orders them by the chosen sort key. Filters combine with AND.

--make and --fuel toggle values on top of the state restored by --url: a
value already selected is removed, any other is added. --clear drops the
restored makes, fuel types and price range first and keeps the text query.

Examples:
  marketplace search --make Toyota --max-price 20000
  marketplace search --url "makes=Toyota,Honda&fuels=Hybrid" --sort price-low
  marketplace search --url "makes=Toyota,Honda" --make Honda`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := url.ParseQuery(strings.TrimPrefix(fromURL, "?"))
			if err != nil {
				return fmt.Errorf("parse --url: %w", err)
			}
			criteria := services.DecodeCriteria(values)

			flags := cmd.Flags()
			if clearFilters {
				criteria = services.ClearFilters(criteria)
			}
			if flags.Changed("query") {
				criteria.Query = query
			}
			for _, m := range makes {
				criteria = services.ToggleMake(criteria, m)
			}
			for _, f := range fuels {
				criteria = services.ToggleFuelType(criteria, f)
			}
			if flags.Changed("min-price") || flags.Changed("max-price") {
				pr := models.PriceRange{Min: 0, Max: services.PriceCeiling}
				if criteria.Price != nil {
					pr = *criteria.Price
				}
				if flags.Changed("min-price") {
					pr.Min = minPrice
				}
				if flags.Changed("max-price") {
					pr.Max = maxPrice
				}
				criteria.Price = &pr
			}
			key := services.ParseSortKey(sortKey)
			if !flags.Changed("sort") {
				key = services.ParseSortKey(values.Get(services.ParamSort))
			}

			cat, err := a.Catalogue()
			if err != nil {
				return err
			}
			res, err := cat.Search(cmd.Context(), criteria, key)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(a.out, res.Listings)
			}
			render.ListingTable(a.out, res.Listings)

			state := services.EncodeCriteria(criteria, nil)
			if key != services.SortLatest {
				state.Set(services.ParamSort, string(key))
			}
			fmt.Fprintf(a.out, "%d of %d listings | %d active filter(s) | sort: %s\n",
				len(res.Listings), res.Total, services.ActiveFilterCount(criteria), key)
			if enc := state.Encode(); enc != "" {
				fmt.Fprintf(a.out, "search state: ?%s\n", enc)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&query, "query", "q", "", "text matched against make, model and title")
	f.StringSliceVar(&makes, "make", nil, "make to toggle (repeatable or comma-separated)")
	f.StringSliceVar(&fuels, "fuel", nil, "fuel type to toggle (repeatable or comma-separated)")
	f.Float64Var(&minPrice, "min-price", 0, "lowest price, inclusive")
	f.Float64Var(&maxPrice, "max-price", services.PriceCeiling, "highest price, inclusive")
	f.StringVar(&sortKey, "sort", string(services.SortLatest), "sort key: "+joinKeys())
	f.StringVar(&fromURL, "url", "", "restore filters from a search query string")
	f.BoolVar(&clearFilters, "clear", false, "drop restored filters before applying the flags")
	f.BoolVar(&asJSON, "json", false, "print listings as JSON")
	return cmd
}

func joinKeys() string {
	keys := make([]string, 0, len(services.SortKeys))
	for _, k := range services.SortKeys {
		keys = append(keys, string(k))
	}
	return strings.Join(keys, ", ")
}

func newShowCmd(a *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <listing-id>",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.Catalogue()
			if err != nil {
				return err
			}
			l, err := cat.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, l)
			}
			render.ListingDetail(a.out, l)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}

func newCompareCmd(a *App) *cobra.Command {
	var htmlOut, pdfOut, pick string
	cmd := &cobra.Command{
		Use:   "compare <listing-id>...",
		Short: "Compare up to four listings side by side",
		Long: `Loads the given listings into the comparison table. The best price, year and
mileage are highlighted when at least two vehicles are compared.

Use --pick to list the vehicles that could fill a free slot, and --html or
--pdf to save a printable comparison sheet.`,
		Args: cobra.MaximumNArgs(services.MaxComparisonSlots),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.Catalogue()
			if err != nil {
				return err
			}
			cmp, err := cat.Compare(cmd.Context(), args)
			if err != nil {
				return err
			}

			sheet := render.NewSheet("Vehicle Comparison", cmp, time.Now())
			render.ComparisonTable(a.out, sheet)

			if cmd.Flags().Changed("pick") {
				if cmp.Full() {
					fmt.Fprintln(a.out, "All comparison slots are taken; remove a vehicle first.")
				} else {
					all, err := cat.All(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintln(a.out, "Vehicles you can add:")
					render.ListingTable(a.out, cmp.Candidates(all, pick))
				}
			}

			if htmlOut != "" {
				doc, err := render.HTML(sheet)
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlOut, doc, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", htmlOut, err)
				}
				fmt.Fprintf(a.out, "Comparison sheet saved to %s\n", htmlOut)
			}
			if pdfOut != "" {
				doc, err := render.HTML(sheet)
				if err != nil {
					return err
				}
				pdf, err := render.NewPDFRenderer(a.cfg.ChromeBin, a.logger).Render(cmd.Context(), doc)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pdfOut, pdf, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", pdfOut, err)
				}
				fmt.Fprintf(a.out, "Comparison PDF saved to %s\n", pdfOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlOut, "html", "", "write the comparison sheet as HTML to this file")
	cmd.Flags().StringVar(&pdfOut, "pdf", "", "write the comparison sheet as PDF to this file (needs Chrome)")
	cmd.Flags().StringVar(&pick, "pick", "", "list vehicles not yet compared whose title contains this text")
	return cmd
}

func newMineCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own listings in every moderation state",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.api.MyListings(cmd.Context())
			if err != nil {
				return err
			}
			listings := a.normalizer.NormalizeAll(raw)
			render.ListingTable(a.out, listings)

			stats := a.insights.Generate(listings)
			fmt.Fprintf(a.out, "active: %d | pending: %d | rejected: %d\n", stats.Approved, stats.Pending, stats.Rejected)
			return nil
		},
	}
}

func newDeleteCmd(a *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <listing-id>",
		Short: "Delete one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := a.confirm(fmt.Sprintf("Delete listing %s?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.out, "Cancelled.")
					return nil
				}
			}
			if err := a.api.DeleteListing(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Listing %s deleted.\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// wizardFields lists the prompted fields of each wizard step.
var wizardFields = map[int][]struct{ name, label string }{
	services.StepBasicInfo: {
		{"make", "Make"},
		{"model", "Model"},
		{"year", "Year"},
		{"price", "Price (Rs.)"},
		{"location", "Location"},
	},
	services.StepSpecifications: {
		{"mileage", "Mileage (km)"},
		{"fuel_type", "Fuel type"},
		{"transmission", "Transmission (" + strings.Join(services.TransmissionTypes, "/") + ")"},
		{"condition", "Condition (" + strings.Join(services.Conditions, "/") + ")"},
		{"colour", "Colour"},
		{"description", "Description"},
	},
}

func newCreateCmd(a *App) *cobra.Command {
	var (
		fields   = map[string]*string{}
		features []string
		images   []string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a listing through the four-step wizard",
		Long: `Walks through Basic Info, Specifications, Images and Review. Values given as
flags pre-fill the form; with --yes nothing is prompted and the listing is
submitted as soon as the required fields are present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.sessions.IsAuthenticated() {
				return client.ErrAuthRequired
			}

			w := services.NewListingWizard()
			for name, v := range fields {
				if err := w.Set(name, *v); err != nil {
					return err
				}
			}
			for _, f := range features {
				if f = strings.TrimSpace(f); f != "" {
					w.ToggleFeature(f)
				}
			}
			for _, img := range images {
				if !w.AddImage(img) {
					fmt.Fprintf(a.out, "Only %d images can be attached; skipping %s\n", services.MaxListingImages, img)
				}
			}

			sub, err := runWizard(a, w, !yes)
			if err != nil {
				return err
			}

			created, err := a.api.CreateListing(cmd.Context(), sub)
			if err != nil {
				return err
			}
			l := a.normalizer.Normalize(created)
			fmt.Fprintf(a.out, "Listing %q submitted for review (id %s).\n", sub.Title, l.ID)
			return nil
		},
	}
	f := cmd.Flags()
	for _, step := range []int{services.StepBasicInfo, services.StepSpecifications} {
		for _, field := range wizardFields[step] {
			v := new(string)
			fields[field.name] = v
			f.StringVar(v, strings.ReplaceAll(field.name, "_", "-"), "", field.label)
		}
	}
	f.StringSliceVar(&features, "feature", nil, "feature to include (repeatable)")
	f.StringSliceVar(&images, "image", nil, "image file to upload (repeatable, at most 10)")
	f.BoolVarP(&yes, "yes", "y", false, "submit without prompting")
	return cmd
}

// runWizard steps through the form until a valid submission is built. When
// interactive is false a validation failure is returned instead of re-prompting.
func runWizard(a *App, w *services.ListingWizard, interactive bool) (models.ListingSubmission, error) {
	if !interactive {
		return w.Submission()
	}

	for {
		fmt.Fprintf(a.out, "\nStep %d of %d: %s\n", w.Step(), len(services.WizardSteps), w.StepTitle())

		switch w.Step() {
		case services.StepBasicInfo, services.StepSpecifications:
			if err := promptStep(a, w); err != nil {
				return models.ListingSubmission{}, err
			}
			if w.Step() == services.StepSpecifications {
				if err := promptFeatures(a, w); err != nil {
					return models.ListingSubmission{}, err
				}
			}
			w.Next()

		case services.StepImages:
			if err := promptImages(a, w); err != nil {
				return models.ListingSubmission{}, err
			}
			w.Next()

		case services.StepReview:
			printDraft(a, w.Draft())
			ok, err := a.confirm("Submit this listing?")
			if err != nil {
				return models.ListingSubmission{}, err
			}
			if !ok {
				return models.ListingSubmission{}, fmt.Errorf("listing not submitted")
			}
			sub, err := w.Submission()
			if err != nil {
				fmt.Fprintln(a.out, describeError(err))
				continue
			}
			return sub, nil
		}
	}
}

func promptStep(a *App, w *services.ListingWizard) error {
	d := w.Draft()
	current := map[string]string{
		"make": d.Make, "model": d.Model, "year": d.Year, "price": d.Price, "location": d.Location,
		"mileage": d.Mileage, "fuel_type": d.FuelType, "transmission": d.Transmission,
		"condition": d.Condition, "colour": d.Colour, "description": d.Description,
	}
	for _, f := range wizardFields[w.Step()] {
		v, err := a.prompt(f.label, current[f.name])
		if err != nil {
			return err
		}
		if err := w.Set(f.name, v); err != nil {
			return err
		}
	}
	return nil
}

func promptFeatures(a *App, w *services.ListingWizard) error {
	fmt.Fprintln(a.out, "Features (numbers separated by commas toggle them):")
	selected := w.Draft().Features
	for i, f := range services.CommonFeatures {
		mark := " "
		if slices.Contains(selected, f) {
			mark = "x"
		}
		fmt.Fprintf(a.out, "  [%s] %2d. %s\n", mark, i+1, f)
	}
	answer, err := a.prompt("Toggle", "")
	if err != nil {
		return err
	}
	for _, part := range strings.Split(answer, ",") {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &n); err != nil {
			continue
		}
		if n >= 1 && n <= len(services.CommonFeatures) {
			w.ToggleFeature(services.CommonFeatures[n-1])
		}
	}
	return nil
}

func promptImages(a *App, w *services.ListingWizard) error {
	for {
		d := w.Draft()
		for i, img := range d.Images {
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, img)
		}
		answer, err := a.prompt(fmt.Sprintf("Image path to add, -N to remove, empty to continue (%d/%d)",
			len(d.Images), services.MaxListingImages), "")
		if err != nil {
			return err
		}
		switch {
		case answer == "":
			return nil
		case strings.HasPrefix(answer, "-"):
			var n int
			if _, err := fmt.Sscanf(answer, "-%d", &n); err != nil || !w.RemoveImage(n-1) {
				fmt.Fprintln(a.out, "No such image.")
			}
		default:
			if _, err := os.Stat(answer); err != nil {
				fmt.Fprintf(a.out, "Cannot read %s: %v\n", answer, err)
				continue
			}
			if !w.AddImage(answer) {
				fmt.Fprintf(a.out, "At most %d images can be attached.\n", services.MaxListingImages)
			}
		}
	}
}

func printDraft(a *App, d models.ListingDraft) {
	fmt.Fprintf(a.out, "  %s %s %s\n", d.Year, d.Make, d.Model)
	fmt.Fprintf(a.out, "  Price: %s | Location: %s\n", orNone(d.Price), orNone(d.Location))
	fmt.Fprintf(a.out, "  Mileage: %s | Fuel: %s | Transmission: %s | Condition: %s | Colour: %s\n",
		orNone(d.Mileage), orNone(d.FuelType), orNone(d.Transmission), orNone(d.Condition), orNone(d.Colour))
	fmt.Fprintf(a.out, "  Features: %s\n", orNone(strings.Join(d.Features, ", ")))
	fmt.Fprintf(a.out, "  Images: %d\n", len(d.Images))
}

func orNone(s string) string {
	if s == "" {
		return services.EmptyCell
	}
	return s
}
