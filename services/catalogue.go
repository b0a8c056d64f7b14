package services

import (
	"context"
	"fmt"
	"strings"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

// listingGetter is implemented by sources that can load one listing by id.
type listingGetter interface {
	Get(ctx context.Context, id string) (models.RawListing, error)
}

// Catalogue runs the read pipeline (fetch, normalize, filter, sort) over a
// listing source. Nothing is cached: every call fetches afresh.
type Catalogue struct {
	source      ListingFetcher
	normalizer  *Normalizer
	concurrency int
	logger      *utils.Logger
}

// NewCatalogue creates a catalogue over source. concurrency bounds the number
// of listings loaded in parallel for a comparison.
func NewCatalogue(source ListingFetcher, n *Normalizer, concurrency int, logger *utils.Logger) *Catalogue {
	return &Catalogue{source: source, normalizer: n, concurrency: concurrency, logger: logger}
}

// SearchResult is one evaluation of the search view.
type SearchResult struct {
	Listings []models.Listing
	Total    int
	Facets   Facets
}

// All fetches and normalizes every listing.
func (c *Catalogue) All(ctx context.Context) ([]models.Listing, error) {
	raw, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch listings: %w", err)
	}
	return c.normalizer.NormalizeAll(raw), nil
}

// Search fetches the catalogue, filters it by criteria and orders it by key.
// Facets describe the whole catalogue, not the filtered subset.
func (c *Catalogue) Search(ctx context.Context, criteria models.Criteria, key SortKey) (*SearchResult, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := SortListings(FilterListings(all, criteria), key)
	c.logger.Debug("search evaluated", "total", len(all), "matched", len(matched), "sort", key)
	return &SearchResult{Listings: matched, Total: len(all), Facets: FacetsOf(all)}, nil
}

// Get loads one listing.
func (c *Catalogue) Get(ctx context.Context, id string) (models.Listing, error) {
	return c.get(ctx, c.normalizer, id)
}

func (c *Catalogue) get(ctx context.Context, n *Normalizer, id string) (models.Listing, error) {
	if g, ok := c.source.(listingGetter); ok {
		raw, err := g.Get(ctx, id)
		if err != nil {
			return models.Listing{}, fmt.Errorf("load listing %s: %w", id, err)
		}
		return n.Normalize(raw), nil
	}

	raw, err := c.source.Fetch(ctx)
	if err != nil {
		return models.Listing{}, fmt.Errorf("fetch listings: %w", err)
	}
	for _, l := range n.NormalizeAll(raw) {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Listing{}, fmt.Errorf("%w: %s", ErrListingNotFound, id)
}

// Compare loads ids into a new comparison in the given order. Blank and
// repeated ids are ignored. Missing display fields show EmptyCell.
func (c *Catalogue) Compare(ctx context.Context, ids []string) (*Comparison, error) {
	ids = uniqueIDs(ids)
	if len(ids) > MaxComparisonSlots {
		return nil, fmt.Errorf("%w: %d requested, at most %d", ErrTooManyVehicles, len(ids), MaxComparisonSlots)
	}

	cmp := NewComparison()
	if len(ids) == 0 {
		return cmp, nil
	}

	n := c.normalizer.WithPlaceholder(EmptyCell)
	loaded := make([]models.Listing, len(ids))

	if _, ok := c.source.(listingGetter); ok {
		pool := utils.NewWorkerPool(c.concurrency, 0)
		for i, id := range ids {
			pool.Go(ctx, func(ctx context.Context) error {
				l, err := c.get(ctx, n, id)
				if err != nil {
					return err
				}
				loaded[i] = l
				return nil
			})
		}
		if err := pool.Wait(); err != nil {
			return nil, err
		}
	} else {
		raw, err := c.source.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch listings: %w", err)
		}
		byID := make(map[string]models.Listing)
		for _, l := range n.NormalizeAll(raw) {
			byID[l.ID] = l
		}
		for i, id := range ids {
			l, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrListingNotFound, id)
			}
			loaded[i] = l
		}
	}

	for _, l := range loaded {
		cmp.Add(l)
	}
	c.logger.Debug("comparison loaded", "ids", ids, "occupied", cmp.Len())
	return cmp, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
