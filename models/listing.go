package models

// RawListing holds an unprocessed listing record exactly as a source delivered it.
// Field names and value types vary between the backend API, the mock fixture and
// partially filled records, so it is kept loosely typed until normalization.
type RawListing map[string]any

// Shape identifies which known raw record layout a RawListing matched.
type Shape string

const (
	ShapeBackend Shape = "backend"
	ShapeMock    Shape = "mock"
	ShapeUnknown Shape = "unknown"
)

// Moderation statuses assigned by admins.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Listing is the canonical, fully defaulted view of a vehicle listing.
// It is rebuilt on every fetch and never mutated afterwards.
type Listing struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Price        float64  `json:"price"`
	PriceKnown   bool     `json:"priceKnown"`
	Mileage      float64  `json:"mileage"`
	FuelType     string   `json:"fuelType"`
	Transmission string   `json:"transmission"`
	Location     string   `json:"location"`
	Colour       string   `json:"colour"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Images       []string `json:"images"`
	Features     []string `json:"features"`
	Status       string   `json:"status"`
	OwnerID      string   `json:"ownerId"`
	Source       string   `json:"source"`
	Shape        Shape    `json:"shape"`
}

// Criteria is the user-controlled filter state of the search view.
// A nil Price means the price range is unbounded.
type Criteria struct {
	Query     string
	Makes     []string
	FuelTypes []string
	Price     *PriceRange
}

// PriceRange is an inclusive [Min, Max] interval.
type PriceRange struct {
	Min float64
	Max float64
}

// ListingStats holds the computed dashboard figures over a listing collection.
type ListingStats struct {
	Total         int
	Approved      int
	Pending       int
	Rejected      int
	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	MostExpensive *Listing
	NewestYear    []*Listing
	ByMake        map[string]int
}
