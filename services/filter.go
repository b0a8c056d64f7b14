package services

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"vehicle-marketplace/models"
)

// Predicate reports whether a listing satisfies one filter condition.
type Predicate func(models.Listing) bool

// Filter returns the listings that satisfy every predicate, preserving order.
// With no predicates it returns a copy of the input.
func Filter(listings []models.Listing, preds ...Predicate) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
next:
	for _, l := range listings {
		for _, p := range preds {
			if !p(l) {
				continue next
			}
		}
		out = append(out, l)
	}
	return out
}

// FilterListings applies c to listings.
func FilterListings(listings []models.Listing, c models.Criteria) []models.Listing {
	return Filter(listings, Predicates(c)...)
}

// Predicates turns criteria into independent predicates, cheapest first.
// Inactive criteria contribute no predicate, so empty criteria match everything.
// The returned predicates must not be shared between goroutines.
func Predicates(c models.Criteria) []Predicate {
	var preds []Predicate

	if c.Price != nil {
		lo, hi := c.Price.Min, c.Price.Max
		preds = append(preds, func(l models.Listing) bool {
			return l.Price >= lo && l.Price <= hi
		})
	}

	if makes := toSet(c.Makes); len(makes) > 0 {
		preds = append(preds, func(l models.Listing) bool {
			_, ok := makes[l.Make]
			return ok
		})
	}

	if fuels := toSet(c.FuelTypes); len(fuels) > 0 {
		preds = append(preds, func(l models.Listing) bool {
			_, ok := fuels[l.FuelType]
			return ok
		})
	}

	if q := strings.TrimSpace(c.Query); q != "" {
		folder := cases.Fold()
		needle := folder.String(q)
		preds = append(preds, func(l models.Listing) bool {
			haystack := folder.String(l.Make + " " + l.Model + " " + l.Title)
			return strings.Contains(haystack, needle)
		})
	}

	return preds
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Facets are the filter options offered for a catalogue.
type Facets struct {
	Makes     []string `json:"makes"`
	FuelTypes []string `json:"fuelTypes"`
	MaxPrice  float64  `json:"maxPrice"`
}

// FacetsOf collects the distinct non-empty makes and fuel types of listings,
// sorted, and the highest price.
func FacetsOf(listings []models.Listing) Facets {
	f := Facets{Makes: []string{}, FuelTypes: []string{}}
	for _, l := range listings {
		if l.Make != "" && !slices.Contains(f.Makes, l.Make) {
			f.Makes = append(f.Makes, l.Make)
		}
		if l.FuelType != "" && !slices.Contains(f.FuelTypes, l.FuelType) {
			f.FuelTypes = append(f.FuelTypes, l.FuelType)
		}
		f.MaxPrice = max(f.MaxPrice, l.Price)
	}
	slices.Sort(f.Makes)
	slices.Sort(f.FuelTypes)
	return f
}
