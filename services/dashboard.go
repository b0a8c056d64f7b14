package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

// DashboardAPI is the slice of the marketplace API the dashboard reads.
type DashboardAPI interface {
	MyListings(ctx context.Context) ([]models.RawListing, error)
	MyFavorites(ctx context.Context) ([]models.Favorite, error)
	AlertLister
}

// Overview is the seller dashboard landing page.
type Overview struct {
	Listings     []models.Listing
	Stats        *models.ListingStats
	Saved        []models.Listing
	Alerts       []models.Alert
	ActiveAlerts int
}

// DashboardService assembles the dashboard from independent API calls.
type DashboardService struct {
	api        DashboardAPI
	normalizer *Normalizer
	insights   *InsightService
	logger     *utils.Logger
}

func NewDashboardService(api DashboardAPI, n *Normalizer, insights *InsightService, logger *utils.Logger) *DashboardService {
	return &DashboardService{api: api, normalizer: n, insights: insights, logger: logger}
}

// Overview fetches my listings, favorites and alerts concurrently. The first
// failure cancels the other calls and is returned.
func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	var (
		mine      []models.RawListing
		favorites []models.Favorite
		alerts    []models.Alert
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mine, err = s.api.MyListings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		favorites, err = s.api.MyFavorites(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.api.ListAlerts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ov := &Overview{
		Listings: s.normalizer.NormalizeAll(mine),
		Saved:    s.SavedListings(favorites),
		Alerts:   alerts,
	}
	ov.Stats = s.insights.Generate(ov.Listings)
	for _, a := range alerts {
		if a.ActiveStatus {
			ov.ActiveAlerts++
		}
	}

	s.logger.Debug("dashboard loaded",
		"listings", len(ov.Listings),
		"saved", len(ov.Saved),
		"alerts", len(ov.Alerts),
	)
	return ov, nil
}

// SavedListings normalizes the listings embedded in favorites, skipping
// favorites whose listing has been deleted.
func (s *DashboardService) SavedListings(favorites []models.Favorite) []models.Listing {
	raw := make([]models.RawListing, 0, len(favorites))
	for _, f := range favorites {
		if len(f.ListingID) == 0 {
			continue
		}
		raw = append(raw, f.ListingID)
	}
	return s.normalizer.NormalizeAll(raw)
}
