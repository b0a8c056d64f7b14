package services

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func newTestNormalizer() *Normalizer {
	return NewNormalizer(NormalizerOptions{BaseURL: "http://api.test/"}, newTestLogger())
}

func TestNormalizeSynthesizesTitleAndParsesPrice(t *testing.T) {
	n := newTestNormalizer()
	l := n.Normalize(models.RawListing{"year": 2022, "make": "Honda", "model": "Civic", "price": "25000"})

	if l.Title != "2022 Honda Civic" {
		t.Errorf("Title: got %q, want %q", l.Title, "2022 Honda Civic")
	}
	if l.Price != 25000 {
		t.Errorf("Price: got %v, want 25000", l.Price)
	}
	if !l.PriceKnown {
		t.Error("PriceKnown: got false, want true")
	}
	if l.Year != 2022 {
		t.Errorf("Year: got %d, want 2022", l.Year)
	}
}

func TestNormalizeCoercesNumbers(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name      string
		raw       models.RawListing
		price     float64
		known     bool
		year      int
		mileage   float64
	}{
		{"missing", models.RawListing{"title": "x"}, 0, false, 0, 0},
		{"null", models.RawListing{"price": nil, "year": nil, "mileage": nil}, 0, false, 0, 0},
		{"garbage strings", models.RawListing{"price": "call me", "year": "new", "mileage": "low"}, 0, false, 0, 0},
		{"NaN", models.RawListing{"price": math.NaN(), "mileage": math.Inf(1)}, 0, false, 0, 0},
		{"negative", models.RawListing{"price": -100, "mileage": "-5"}, 0, false, 0, 0},
		{"numeric strings", models.RawListing{"price": " 1500000 ", "year": "2019", "mileage": "42000.5"}, 1500000, true, 2019, 42000.5},
		{"zero price is real data", models.RawListing{"price": 0}, 0, true, 0, 0},
		{"out of range", models.RawListing{"price": 1e30, "year": "1e30", "mileage": "1e300"}, 1e30, true, 0, 1e300},
		{"year past 9999", models.RawListing{"year": 10000}, 0, false, 0, 0},
		{"wrong types", models.RawListing{"price": []int{1}, "year": true, "mileage": map[string]any{"km": 5}}, 0, false, 0, 0},
	}

	for _, tt := range tests {
		l := n.Normalize(tt.raw)
		if l.Price != tt.price || l.PriceKnown != tt.known {
			t.Errorf("%s: price got (%v, %v), want (%v, %v)", tt.name, l.Price, l.PriceKnown, tt.price, tt.known)
		}
		if l.Year != tt.year {
			t.Errorf("%s: year got %d, want %d", tt.name, l.Year, tt.year)
		}
		if l.Mileage != tt.mileage {
			t.Errorf("%s: mileage got %v, want %v", tt.name, l.Mileage, tt.mileage)
		}
		if l.Year < 0 || l.Price < 0 || l.Mileage < 0 {
			t.Errorf("%s: negative numeric leaked into output", tt.name)
		}
		if math.IsNaN(l.Price) || math.IsNaN(l.Mileage) {
			t.Errorf("%s: NaN leaked into output", tt.name)
		}
	}
}

func TestNormalizeResolvesImageURLs(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name    string
		raw     models.RawListing
		primary string
		all     []string
	}{
		{
			name:    "upload object",
			raw:     models.RawListing{"_id": "a1", "images": []any{map[string]any{"image_url": "/uploads/x.jpg"}}},
			primary: "http://api.test/uploads/x.jpg",
			all:     []string{"http://api.test/uploads/x.jpg"},
		},
		{
			name:    "absolute string",
			raw:     models.RawListing{"images": []string{"https://cdn.example.com/y.jpg", "/uploads/z.jpg"}},
			primary: "https://cdn.example.com/y.jpg",
			all:     []string{"https://cdn.example.com/y.jpg", "http://api.test/uploads/z.jpg"},
		},
		{
			name:    "single image field",
			raw:     models.RawListing{"id": 3, "title": "Mock", "image": "https://images.example.com/car.jpg"},
			primary: "https://images.example.com/car.jpg",
			all:     []string{"https://images.example.com/car.jpg"},
		},
		{
			name:    "empty first entry",
			raw:     models.RawListing{"images": []any{map[string]any{}, "/uploads/b.jpg"}},
			primary: "",
			all:     []string{"http://api.test/uploads/b.jpg"},
		},
		{
			name:    "not an array",
			raw:     models.RawListing{"images": "/uploads/c.jpg"},
			primary: "",
			all:     []string{},
		},
	}

	for _, tt := range tests {
		l := n.Normalize(tt.raw)
		if l.Image != tt.primary {
			t.Errorf("%s: Image got %q, want %q", tt.name, l.Image, tt.primary)
		}
		if diff := cmp.Diff(tt.all, l.Images); diff != "" {
			t.Errorf("%s: Images mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestResolveImageURL(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct{ in, want string }{
		{"/uploads/x.jpg", "http://api.test/uploads/x.jpg"},
		{"https://cdn.example.com/x.jpg", "https://cdn.example.com/x.jpg"},
		{"", ""},
		{"images/x.jpg", "images/x.jpg"},
	}
	for _, tt := range tests {
		if got := n.ResolveImageURL(tt.in); got != tt.want {
			t.Errorf("ResolveImageURL(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSanitizesFeatures(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"trims and drops empties", []any{" ABS ", "", "  ", "Sunroof", "ABS"}, []string{"ABS", "Sunroof", "ABS"}},
		{"non-string entries dropped", []any{"Bluetooth", 5, nil, true}, []string{"Bluetooth"}},
		{"string slice", []string{"Airbags"}, []string{"Airbags"}},
		{"not an array", "ABS, Sunroof", []string{}},
		{"missing", nil, []string{}},
	}
	for _, tt := range tests {
		l := n.Normalize(models.RawListing{"features": tt.in})
		if diff := cmp.Diff(tt.want, l.Features); diff != "" {
			t.Errorf("%s: Features mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestNormalizeClassifiesShapes(t *testing.T) {
	n := newTestNormalizer()

	backend := n.Normalize(models.RawListing{
		"_id":          "65f1c0ffee",
		"title":        "Toyota Aqua",
		"fuel_type":    "Hybrid",
		"colour":       "Blue",
		"admin_status": "approved",
		"user_id":      map[string]any{"_id": "u1", "name": "Nimal"},
		"source_url":   "ikman",
	})
	if backend.Shape != models.ShapeBackend {
		t.Errorf("backend Shape: got %q, want %q", backend.Shape, models.ShapeBackend)
	}
	want := models.Listing{
		ID: "65f1c0ffee", Title: "Toyota Aqua", FuelType: "Hybrid", Colour: "Blue",
		Status: models.StatusApproved, OwnerID: "u1", Source: "ikman", Shape: models.ShapeBackend,
		Images: []string{}, Features: []string{},
	}
	if diff := cmp.Diff(want, backend); diff != "" {
		t.Errorf("backend mismatch (-want +got):\n%s", diff)
	}

	mock := n.Normalize(models.RawListing{
		"id": 7, "title": "2021 Tesla Model 3", "image": "https://img.test/t.jpg",
		"fuelType": "Electric", "color": "White", "source": "dealer",
	})
	if mock.Shape != models.ShapeMock {
		t.Errorf("mock Shape: got %q, want %q", mock.Shape, models.ShapeMock)
	}
	if mock.ID != "7" || mock.FuelType != "Electric" || mock.Colour != "White" || mock.Source != "dealer" {
		t.Errorf("mock fields: got id=%q fuel=%q colour=%q source=%q", mock.ID, mock.FuelType, mock.Colour, mock.Source)
	}

	unknown := n.Normalize(models.RawListing{"make": "Suzuki"})
	if unknown.Shape != models.ShapeUnknown {
		t.Errorf("unknown Shape: got %q, want %q", unknown.Shape, models.ShapeUnknown)
	}
	if unknown.Source != "direct" {
		t.Errorf("unknown Source: got %q, want %q", unknown.Source, "direct")
	}
}

func TestNormalizeIdentifiers(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw  models.RawListing
		want string
	}{
		{models.RawListing{"_id": map[string]any{"$oid": "abc123"}}, "abc123"},
		{models.RawListing{"_id": 42}, "42"},
		{models.RawListing{"id": "m-1"}, "m-1"},
		{models.RawListing{}, ""},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.raw).ID; got != tt.want {
			t.Errorf("ID of %v: got %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizePlaceholder(t *testing.T) {
	n := newTestNormalizer()

	plain := n.Normalize(models.RawListing{"make": "Nissan"})
	if plain.FuelType != "" || plain.Location != "" {
		t.Errorf("default placeholder: got fuel=%q location=%q, want empty", plain.FuelType, plain.Location)
	}

	dashed := n.WithPlaceholder(EmptyCell).Normalize(models.RawListing{"make": "Nissan", "transmission": "Manual"})
	if dashed.FuelType != EmptyCell || dashed.Colour != EmptyCell || dashed.Location != EmptyCell {
		t.Errorf("placeholder not applied: %+v", dashed)
	}
	if dashed.Transmission != "Manual" {
		t.Errorf("Transmission: got %q, want %q", dashed.Transmission, "Manual")
	}
	if dashed.Description != "" {
		t.Errorf("Description should never take the placeholder, got %q", dashed.Description)
	}
}

func TestNormalizeAllKeepsMalformedRecords(t *testing.T) {
	n := newTestNormalizer()
	raw := []models.RawListing{
		{"title": "Good", "price": 100},
		{"price": math.NaN(), "title": make(chan int)},
		nil,
		{"title": "Also good", "price": "200"},
	}

	out := n.NormalizeAll(raw)
	if len(out) != len(raw) {
		t.Fatalf("len: got %d, want %d", len(out), len(raw))
	}
	if out[0].Title != "Good" || out[3].Price != 200 {
		t.Errorf("well-formed records damaged: %+v / %+v", out[0], out[3])
	}
	if out[1].Title != "" || out[1].Price != 0 {
		t.Errorf("malformed record not defaulted: %+v", out[1])
	}
}

func TestNormalizeTitleFallback(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw  models.RawListing
		want string
	}{
		{models.RawListing{"title": "  ", "year": 2018, "make": "Toyota", "model": "Axio"}, "2018 Toyota Axio"},
		{models.RawListing{"make": "Toyota"}, "Toyota"},
		{models.RawListing{"year": "2015", "model": "Vezel"}, "2015 Vezel"},
		{models.RawListing{}, ""},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.raw).Title; got != tt.want {
			t.Errorf("Title of %v: got %q, want %q", tt.raw, got, tt.want)
		}
	}
}
