package storage

import (
	"context"

	"vehicle-marketplace/models"
)

// ListingSource delivers raw listing records from wherever they live.
type ListingSource interface {
	Fetch(ctx context.Context) ([]models.RawListing, error)
}

// ListingWriter is the interface any export or snapshot backend must satisfy.
type ListingWriter interface {
	Write(listings []models.Listing) error
	Close() error
}
