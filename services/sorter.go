package services

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"vehicle-marketplace/models"
)

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortLatest    SortKey = "latest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortMileage   SortKey = "mileage"
	SortYear      SortKey = "year"
)

// SortKeys lists every supported key in menu order.
var SortKeys = []SortKey{SortLatest, SortPriceLow, SortPriceHigh, SortMileage, SortYear}

// ParseSortKey returns the key named by s, or SortLatest for anything unknown.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortLatest
}

// SortListings returns a stably sorted copy of listings. Listings with equal
// keys keep their relative order.
func SortListings(listings []models.Listing, key SortKey) []models.Listing {
	out := slices.Clone(listings)
	slices.SortStableFunc(out, comparator(key))
	return out
}

func comparator(key SortKey) func(a, b models.Listing) int {
	switch key {
	case SortPriceLow:
		return func(a, b models.Listing) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceHigh:
		return func(a, b models.Listing) int { return cmp.Compare(b.Price, a.Price) }
	case SortMileage:
		return func(a, b models.Listing) int { return cmp.Compare(a.Mileage, b.Mileage) }
	case SortYear:
		return func(a, b models.Listing) int { return cmp.Compare(b.Year, a.Year) }
	default:
		return func(a, b models.Listing) int { return compareIDs(b.ID, a.ID) }
	}
}

// compareIDs orders integer ids numerically and everything else (e.g. Mongo
// ObjectIds, whose hex prefix is a timestamp) lexicographically. Integer ids
// sort below all others so the order stays total when both kinds are mixed.
func compareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
