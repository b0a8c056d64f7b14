package services

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// shapeSchemas are tried in order; the first that validates names the shape.
var shapeSchemas []shapeSchema

type shapeSchema struct {
	shape  models.Shape
	schema *jsonschema.Schema
}

func init() {
	compiler := jsonschema.NewCompiler()
	for _, s := range []struct {
		shape models.Shape
		file  string
	}{
		{models.ShapeBackend, "schemas/backend.json"},
		{models.ShapeMock, "schemas/mock.json"},
	} {
		data, err := schemaFS.ReadFile(s.file)
		if err != nil {
			panic(fmt.Sprintf("normalizer: read %s: %v", s.file, err))
		}
		if err := compiler.AddResource(s.file, bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("normalizer: add schema %s: %v", s.file, err))
		}
		compiled, err := compiler.Compile(s.file)
		if err != nil {
			panic(fmt.Sprintf("normalizer: compile %s: %v", s.file, err))
		}
		shapeSchemas = append(shapeSchemas, shapeSchema{shape: s.shape, schema: compiled})
	}
}

// field aliases per shape, most preferred first.
var (
	backendAliases = aliases{
		id:       []string{"_id", "id"},
		fuel:     []string{"fuel_type", "fuelType"},
		colour:   []string{"colour", "color"},
		status:   []string{"admin_status", "status"},
		owner:    []string{"user_id", "userId", "owner"},
		source:   []string{"source_url", "source"},
		oneImage: []string{"image"},
	}
	mockAliases = aliases{
		id:       []string{"id", "_id"},
		fuel:     []string{"fuelType", "fuel_type"},
		colour:   []string{"color", "colour"},
		status:   []string{"status", "admin_status"},
		owner:    []string{"userId", "user_id", "owner"},
		source:   []string{"source", "source_url"},
		oneImage: []string{"image"},
	}
)

type aliases struct {
	id, fuel, colour, status, owner, source, oneImage []string
}

// NormalizerOptions configures URL resolution and display defaults.
type NormalizerOptions struct {
	// BaseURL is prepended to image paths that start with UploadPrefix.
	BaseURL string
	// UploadPrefix marks relative storage paths, "/uploads" by default.
	UploadPrefix string
	// Placeholder replaces absent fuel type, transmission, location and colour.
	Placeholder string
}

// Normalizer maps raw listing records of any known shape into models.Listing.
type Normalizer struct {
	opts   NormalizerOptions
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given options and logger.
func NewNormalizer(opts NormalizerOptions, logger *utils.Logger) *Normalizer {
	if opts.UploadPrefix == "" {
		opts.UploadPrefix = "/uploads"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Normalizer{opts: opts, logger: logger}
}

// WithPlaceholder returns a copy of n that uses p for absent display fields.
func (n *Normalizer) WithPlaceholder(p string) *Normalizer {
	opts := n.opts
	opts.Placeholder = p
	return &Normalizer{opts: opts, logger: n.logger}
}

// NormalizeAll normalizes every record. A malformed record degrades to
// defaults and never removes or blocks the others.
func (n *Normalizer) NormalizeAll(raw []models.RawListing) []models.Listing {
	result := make([]models.Listing, 0, len(raw))
	unknown := 0
	for _, r := range raw {
		l := n.Normalize(r)
		if l.Shape == models.ShapeUnknown {
			unknown++
		}
		result = append(result, l)
	}

	n.logger.Debug("normalized listings", "count", len(result), "unknown_shape", unknown)
	return result
}

// Normalize converts one raw record. It never panics and never fails.
func (n *Normalizer) Normalize(raw models.RawListing) models.Listing {
	rec, err := canonicalize(raw)
	if err != nil {
		n.logger.Warn("raw listing partially unreadable, defaulting affected fields", "error", err)
	}

	shape := classify(rec)
	al := backendAliases
	if shape == models.ShapeMock {
		al = mockAliases
	}

	year, _ := number(rec["year"])
	price, priceKnown := number(rec["price"])
	mileage, _ := number(rec["mileage"])

	l := models.Listing{
		ID:           identifier(firstValue(rec, al.id...)),
		Make:         text(rec["make"]),
		Model:        text(rec["model"]),
		Year:         calendarYear(year),
		Price:        price,
		PriceKnown:   priceKnown,
		Mileage:      mileage,
		FuelType:     n.orPlaceholder(firstText(rec, al.fuel...)),
		Transmission: n.orPlaceholder(text(rec["transmission"])),
		Location:     n.orPlaceholder(text(rec["location"])),
		Colour:       n.orPlaceholder(firstText(rec, al.colour...)),
		Description:  text(rec["description"]),
		Features:     sanitizeFeatures(rec["features"]),
		Status:       firstText(rec, al.status...),
		OwnerID:      identifier(firstValue(rec, al.owner...)),
		Source:       firstText(rec, al.source...),
		Shape:        shape,
	}
	if l.Source == "" {
		l.Source = "direct"
	}

	l.Title = text(rec["title"])
	if l.Title == "" {
		l.Title = synthesizeTitle(l.Year, l.Make, l.Model)
	}

	l.Image, l.Images = n.resolveImages(rec["images"], firstText(rec, al.oneImage...))
	return l
}

func (n *Normalizer) orPlaceholder(s string) string {
	if s == "" {
		return n.opts.Placeholder
	}
	return s
}

// resolveImages returns the primary image (first entry) and every non-empty
// resolved image URL. A lone "image" string is used when "images" is empty.
func (n *Normalizer) resolveImages(images any, single string) (string, []string) {
	entries, _ := images.([]any)

	resolved := make([]string, 0, len(entries)+1)
	primary := ""
	for i, entry := range entries {
		url := n.ResolveImageURL(imagePath(entry))
		if i == 0 {
			primary = url
		}
		if url != "" {
			resolved = append(resolved, url)
		}
	}

	if len(entries) == 0 && single != "" {
		primary = n.ResolveImageURL(single)
		resolved = append(resolved, primary)
	}
	return primary, resolved
}

// ResolveImageURL rewrites upload-relative paths to absolute URLs and passes
// everything else through unchanged.
func (n *Normalizer) ResolveImageURL(path string) string {
	if strings.HasPrefix(path, n.opts.UploadPrefix) {
		return n.opts.BaseURL + path
	}
	return path
}

func imagePath(entry any) string {
	switch v := entry.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s := text(v["image_url"]); s != "" {
			return s
		}
		return text(v["url"])
	default:
		return ""
	}
}

// canonicalize round-trips every field through JSON so that each value is one
// of the JSON types (string, json.Number, bool, nil, []any, map[string]any) no
// matter which source produced it. A field that cannot be encoded is dropped
// on its own; the error reports the dropped keys.
func canonicalize(raw models.RawListing) (map[string]any, error) {
	rec := make(map[string]any, len(raw))
	var dropped []string
	for k, v := range raw {
		data, err := json.Marshal(v)
		if err != nil {
			dropped = append(dropped, k)
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var out any
		if err := dec.Decode(&out); err != nil {
			dropped = append(dropped, k)
			continue
		}
		rec[k] = out
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		return rec, fmt.Errorf("unencodable fields dropped: %s", strings.Join(dropped, ", "))
	}
	return rec, nil
}

func classify(rec map[string]any) models.Shape {
	for _, s := range shapeSchemas {
		if err := s.schema.Validate(rec); err == nil {
			return s.shape
		}
	}
	return models.ShapeUnknown
}

// number coerces v to a finite, non-negative float64. ok reports whether v
// held a usable number; every failure yields 0.
// maxYear bounds the years accepted from raw data; anything larger is garbage.
const maxYear = 9999

// calendarYear truncates y to a whole year, or 0 when it is out of range.
func calendarYear(y float64) int {
	if y > maxYear {
		return 0
	}
	return int(math.Floor(y))
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// identifier reads ids that may be strings, numbers, {"$oid": "..."} or a
// populated document carrying its own _id / id.
func identifier(v any) string {
	if m, ok := v.(map[string]any); ok {
		for _, k := range []string{"$oid", "_id", "id"} {
			if s := text(m[k]); s != "" {
				return s
			}
		}
		return ""
	}
	return text(v)
}

func firstValue(rec map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstText(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := text(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

func sanitizeFeatures(v any) []string {
	entries, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if s, ok := e.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// synthesizeTitle builds "{year} {make} {model}", skipping absent parts.
func synthesizeTitle(year int, vehicleMake, vehicleModel string) string {
	parts := make([]string, 0, 3)
	if year > 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	for _, p := range []string{vehicleMake, vehicleModel} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
