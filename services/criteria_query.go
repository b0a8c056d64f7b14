package services

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"vehicle-marketplace/models"
)

// PriceCeiling is the upper end of the price slider (100 million LKR).
const PriceCeiling = 100_000_000

// Query parameter names used to persist the search state in a URL.
const (
	ParamQuery    = "q"
	ParamMake     = "make"
	ParamMakes    = "makes"
	ParamFuels    = "fuels"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
	ParamSort     = "sort"
)

// DecodeCriteria restores criteria from URL query parameters. The single
// "make" parameter is used as the text query when "q" is absent. Unparsable
// prices fall back to the slider bounds.
func DecodeCriteria(v url.Values) models.Criteria {
	c := models.Criteria{
		Query:     strings.TrimSpace(v.Get(ParamQuery)),
		Makes:     splitCSV(v.Get(ParamMakes)),
		FuelTypes: splitCSV(v.Get(ParamFuels)),
	}
	if c.Query == "" {
		c.Query = strings.TrimSpace(v.Get(ParamMake))
	}

	if v.Has(ParamMinPrice) || v.Has(ParamMaxPrice) {
		c.Price = &models.PriceRange{
			Min: parsePrice(v.Get(ParamMinPrice), 0),
			Max: parsePrice(v.Get(ParamMaxPrice), PriceCeiling),
		}
	}
	return c
}

// EncodeCriteria writes c into a copy of base, leaving unrelated parameters
// untouched. Empty sets are removed rather than written as empty strings.
func EncodeCriteria(c models.Criteria, base url.Values) url.Values {
	out := url.Values{}
	for k, vs := range base {
		out[k] = slices.Clone(vs)
	}

	if q := strings.TrimSpace(c.Query); q != "" {
		out.Set(ParamQuery, q)
	} else {
		out.Del(ParamQuery)
	}

	if len(c.Makes) > 0 {
		out.Set(ParamMakes, strings.Join(c.Makes, ","))
	} else {
		out.Del(ParamMakes)
	}

	if len(c.FuelTypes) > 0 {
		out.Set(ParamFuels, strings.Join(c.FuelTypes, ","))
	} else {
		out.Del(ParamFuels)
	}

	if c.Price != nil {
		out.Set(ParamMinPrice, formatNumber(c.Price.Min))
		out.Set(ParamMaxPrice, formatNumber(c.Price.Max))
	} else {
		out.Del(ParamMinPrice)
		out.Del(ParamMaxPrice)
	}
	return out
}

// ActiveFilterCount counts selected makes and fuel types, plus one when the
// price range is narrower than the full slider.
func ActiveFilterCount(c models.Criteria) int {
	n := len(c.Makes) + len(c.FuelTypes)
	if c.Price != nil && (c.Price.Min > 0 || c.Price.Max < PriceCeiling) {
		n++
	}
	return n
}

// ToggleMake returns c with make added or removed.
func ToggleMake(c models.Criteria, vehicleMake string) models.Criteria {
	c.Makes = toggle(c.Makes, vehicleMake)
	return c
}

// ToggleFuelType returns c with fuel added or removed.
func ToggleFuelType(c models.Criteria, fuel string) models.Criteria {
	c.FuelTypes = toggle(c.FuelTypes, fuel)
	return c
}

// ClearFilters resets makes, fuel types and price but keeps the text query.
func ClearFilters(c models.Criteria) models.Criteria {
	return models.Criteria{Query: c.Query}
}

func toggle(values []string, v string) []string {
	if i := slices.Index(values, v); i >= 0 {
		return slices.Delete(slices.Clone(values), i, i+1)
	}
	return append(slices.Clone(values), v)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePrice(s string, fallback float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
