package services

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vehicle-marketplace/models"
)

// MaxComparisonSlots is the number of vehicles that can be compared side by side.
const MaxComparisonSlots = 4

// EmptyCell is shown for missing values and empty slots.
const EmptyCell = "—"

// CompareField names a comparable specification row.
type CompareField string

const (
	FieldPrice        CompareField = "price"
	FieldYear         CompareField = "year"
	FieldMileage      CompareField = "mileage"
	FieldFuelType     CompareField = "fuelType"
	FieldTransmission CompareField = "transmission"
	FieldCondition    CompareField = "condition"
	FieldColour       CompareField = "colour"
)

// SpecRow is one row of the comparison table. Cells has one entry per slot.
type SpecRow struct {
	Label  string
	Field  CompareField
	Cells  []string
	BestID string
}

// FeatureRow marks which slots carry a feature.
type FeatureRow struct {
	Feature string
	Has     []bool
}

var specRows = []struct {
	label string
	field CompareField
}{
	{"Price (Rs.)", FieldPrice},
	{"Year", FieldYear},
	{"Mileage (km)", FieldMileage},
	{"Fuel Type", FieldFuelType},
	{"Transmission", FieldTransmission},
	{"Condition", FieldCondition},
	{"Color", FieldColour},
}

// Comparison holds up to MaxComparisonSlots listings in fixed positions.
// A Comparison is not safe for concurrent use.
type Comparison struct {
	slots [MaxComparisonSlots]*models.Listing
}

// NewComparison returns an empty comparison.
func NewComparison() *Comparison {
	return &Comparison{}
}

// Add places l in the first empty slot. It is a no-op returning false when
// every slot is taken, when l is already present, or when l has no id.
func (c *Comparison) Add(l models.Listing) bool {
	if l.ID == "" || c.Contains(l.ID) {
		return false
	}
	for i, s := range c.slots {
		if s == nil {
			listing := l
			c.slots[i] = &listing
			return true
		}
	}
	return false
}

// Remove frees the slot holding id. Other slots keep their positions.
func (c *Comparison) Remove(id string) bool {
	for i, s := range c.slots {
		if s != nil && s.ID == id {
			c.slots[i] = nil
			return true
		}
	}
	return false
}

// Contains reports whether a listing with id occupies a slot.
func (c *Comparison) Contains(id string) bool {
	for _, s := range c.slots {
		if s != nil && s.ID == id {
			return true
		}
	}
	return false
}

// Slots returns a copy of every slot; empty slots are nil.
func (c *Comparison) Slots() []*models.Listing {
	out := make([]*models.Listing, MaxComparisonSlots)
	for i, s := range c.slots {
		if s != nil {
			listing := *s
			out[i] = &listing
		}
	}
	return out
}

// Occupants returns the occupied slots in slot order.
func (c *Comparison) Occupants() []models.Listing {
	var out []models.Listing
	for _, s := range c.slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// Len returns the number of occupied slots.
func (c *Comparison) Len() int {
	n := 0
	for _, s := range c.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Full reports whether no slot is free.
func (c *Comparison) Full() bool {
	return c.Len() == MaxComparisonSlots
}

// BestValueFor returns the id of the occupant with the best value for field:
// lowest price or mileage, newest year. The earliest slot wins ties. There is
// no designation with fewer than two occupants or for non-numeric fields.
func (c *Comparison) BestValueFor(field CompareField) (string, bool) {
	var better func(a, b *models.Listing) bool
	switch field {
	case FieldPrice:
		better = func(a, b *models.Listing) bool { return a.Price < b.Price }
	case FieldMileage:
		better = func(a, b *models.Listing) bool { return a.Mileage < b.Mileage }
	case FieldYear:
		better = func(a, b *models.Listing) bool { return a.Year > b.Year }
	default:
		return "", false
	}

	if c.Len() < 2 {
		return "", false
	}

	var best *models.Listing
	for _, s := range c.slots {
		if s == nil {
			continue
		}
		if best == nil || better(s, best) {
			best = s
		}
	}
	return best.ID, true
}

// FeatureUnion returns the sorted, de-duplicated union of every occupant's
// features. It is empty when no occupant has a feature.
func (c *Comparison) FeatureUnion() []string {
	seen := make(map[string]struct{})
	for _, s := range c.slots {
		if s == nil {
			continue
		}
		for _, f := range s.Features {
			seen[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// FeatureRows returns one row per feature in FeatureUnion order, or nil when
// the union is empty and the feature section should not be shown.
func (c *Comparison) FeatureRows() []FeatureRow {
	union := c.FeatureUnion()
	if len(union) == 0 {
		return nil
	}
	rows := make([]FeatureRow, 0, len(union))
	for _, f := range union {
		row := FeatureRow{Feature: f, Has: make([]bool, MaxComparisonSlots)}
		for i, s := range c.slots {
			row.Has[i] = s != nil && slices.Contains(s.Features, f)
		}
		rows = append(rows, row)
	}
	return rows
}

// Candidates lists the listings in all that are not yet compared and whose
// title contains query, case-insensitively.
func (c *Comparison) Candidates(all []models.Listing, query string) []models.Listing {
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(query))
	var out []models.Listing
	for _, l := range all {
		if c.Contains(l.ID) {
			continue
		}
		if needle != "" && !strings.Contains(folder.String(l.Title), needle) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Rows builds the specification table with formatted cells.
func (c *Comparison) Rows() []SpecRow {
	p := message.NewPrinter(language.English)
	rows := make([]SpecRow, 0, len(specRows))
	for _, def := range specRows {
		row := SpecRow{Label: def.label, Field: def.field, Cells: make([]string, MaxComparisonSlots)}
		for i, s := range c.slots {
			if s == nil {
				row.Cells[i] = EmptyCell
				continue
			}
			row.Cells[i] = formatCell(p, def.field, s)
		}
		row.BestID, _ = c.BestValueFor(def.field)
		rows = append(rows, row)
	}
	return rows
}

func formatCell(p *message.Printer, field CompareField, l *models.Listing) string {
	switch field {
	case FieldPrice:
		return p.Sprintf("Rs. %.0f", l.Price)
	case FieldYear:
		if l.Year == 0 {
			return EmptyCell
		}
		return strconv.Itoa(l.Year)
	case FieldMileage:
		return p.Sprintf("%.0f km", l.Mileage)
	case FieldFuelType:
		return orEmptyCell(l.FuelType)
	case FieldTransmission:
		return orEmptyCell(l.Transmission)
	case FieldCondition:
		return "Used"
	case FieldColour:
		return orEmptyCell(l.Colour)
	}
	return EmptyCell
}

func orEmptyCell(s string) string {
	if s == "" {
		return EmptyCell
	}
	return s
}
