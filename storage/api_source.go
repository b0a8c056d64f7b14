package storage

import (
	"context"

	"vehicle-marketplace/models"
)

// PublicListings is implemented by the API client.
type PublicListings interface {
	ListListings(ctx context.Context) ([]models.RawListing, error)
	GetListing(ctx context.Context, id string) (models.RawListing, error)
}

// APISource reads the approved listings from the marketplace API.
type APISource struct {
	api PublicListings
}

func NewAPISource(api PublicListings) *APISource {
	return &APISource{api: api}
}

func (s *APISource) Fetch(ctx context.Context) ([]models.RawListing, error) {
	return s.api.ListListings(ctx)
}

// Get loads a single listing without fetching the whole catalogue.
func (s *APISource) Get(ctx context.Context, id string) (models.RawListing, error) {
	return s.api.GetListing(ctx, id)
}
