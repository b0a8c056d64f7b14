package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-marketplace/models"
	"vehicle-marketplace/services"
	"vehicle-marketplace/utils"
)

var generated = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func vehicles() []models.Listing {
	return []models.Listing{
		{ID: "1", Title: "2019 Toyota Corolla", Make: "Toyota", Price: 30000, PriceKnown: true, Year: 2019, Mileage: 42000, FuelType: "Petrol", Features: []string{"Sunroof"}},
		{ID: "2", Title: "2021 Honda Civic", Make: "Honda", Price: 25000, PriceKnown: true, Year: 2021, Mileage: 18000, FuelType: "Hybrid", Features: []string{"Bluetooth", "Sunroof"}},
		{ID: "3", Title: "2018 Nissan Leaf", Make: "Nissan", Price: 40000, PriceKnown: true, Year: 2018, Mileage: 60000, FuelType: "Electric"},
	}
}

func comparisonOf(ls ...models.Listing) *services.Comparison {
	c := services.NewComparison()
	for _, l := range ls {
		c.Add(l)
	}
	return c
}

func TestNewSheetKeepsOnlyOccupiedColumns(t *testing.T) {
	v := vehicles()
	c := comparisonOf(v...)
	c.Remove("1")

	sheet := NewSheet("Compare", c, generated)

	require.Len(t, sheet.Columns, 2)
	assert.Equal(t, "2", sheet.Columns[0].ID)
	assert.Equal(t, "3", sheet.Columns[1].ID)
	for _, row := range sheet.Specs {
		assert.Len(t, row.Cells, 2, row.Label)
	}
}

func TestNewSheetMarksBestCells(t *testing.T) {
	sheet := NewSheet("Compare", comparisonOf(vehicles()...), generated)

	best := map[string]int{}
	for _, row := range sheet.Specs {
		for i, cell := range row.Cells {
			if cell.Best {
				best[row.Label] = i
			}
		}
	}
	assert.Equal(t, map[string]int{"Price (Rs.)": 1, "Year": 1, "Mileage (km)": 1}, best)
}

func TestNewSheetSingleOccupantHasNoBest(t *testing.T) {
	sheet := NewSheet("Compare", comparisonOf(vehicles()[0]), generated)
	for _, row := range sheet.Specs {
		for _, cell := range row.Cells {
			if cell.Best {
				t.Errorf("%s: unexpected best cell with one occupant", row.Label)
			}
		}
	}
}

func TestWriteHTML(t *testing.T) {
	sheet := NewSheet("Vehicle comparison", comparisonOf(vehicles()...), generated)

	out, err := HTML(sheet)
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, "<title>Vehicle comparison</title>")
	assert.Contains(t, doc, "2021 Honda Civic")
	assert.Contains(t, doc, `<td class="best">Rs. 25,000</td>`)
	assert.Contains(t, doc, "3 of 4 slots used")
	assert.Contains(t, doc, "<h2>Features</h2>")
	assert.Contains(t, doc, "Bluetooth")
}

func TestWriteHTMLOmitsEmptyFeatureSection(t *testing.T) {
	v := vehicles()
	sheet := NewSheet("Compare", comparisonOf(v[2]), generated)

	out, err := HTML(sheet)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<h2>Features</h2>")
}

func TestWriteHTMLEscapesTitles(t *testing.T) {
	l := models.Listing{ID: "x", Title: `<script>alert(1)</script>`}
	out, err := HTML(NewSheet("Compare", comparisonOf(l), generated))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>alert(1)</script>")
}

func TestWriteHTMLEmpty(t *testing.T) {
	out, err := HTML(NewSheet("Compare", services.NewComparison(), generated))
	require.NoError(t, err)
	assert.Contains(t, string(out), "No vehicles selected.")
}

func TestListingTable(t *testing.T) {
	v := vehicles()
	v = append(v, models.Listing{ID: "4", Title: "Mystery car"})

	var buf bytes.Buffer
	ListingTable(&buf, v)
	out := buf.String()

	for _, want := range []string{"TITLE", "2021 Honda Civic", "Rs. 25,000", "42,000 km", "4 vehicle(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing table: missing %q in\n%s", want, out)
		}
	}
}

func TestListingTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	ListingTable(&buf, nil)
	assert.Contains(t, buf.String(), "No vehicles found.")
}

func TestPriceUnknown(t *testing.T) {
	if got := Price(models.Listing{}); got != services.EmptyCell {
		t.Errorf("Price: got %q, want %q", got, services.EmptyCell)
	}
	if got := Price(models.Listing{Price: 1500000, PriceKnown: true}); got != "Rs. 1,500,000" {
		t.Errorf("Price: got %q, want %q", got, "Rs. 1,500,000")
	}
}

func TestComparisonTable(t *testing.T) {
	var buf bytes.Buffer
	ComparisonTable(&buf, NewSheet("Compare", comparisonOf(vehicles()...), generated))
	out := buf.String()

	for _, want := range []string{"Price (Rs.)", "2018 Nissan Leaf", "Rs. 40,000", "Sunroof", "✓", "✗"} {
		assert.Contains(t, out, want)
	}
}

func TestAlertTable(t *testing.T) {
	var buf bytes.Buffer
	AlertTable(&buf, []models.Alert{
		{ID: "a1", Make: "Toyota", MaxPrice: 20000, ActiveStatus: true},
		{ID: "a2", Make: "Honda", Model: "Civic"},
	})
	out := buf.String()
	for _, want := range []string{"Toyota", "Rs. 20,000", "any", "active", "paused", "Civic"} {
		assert.Contains(t, out, want)
	}
}

func TestPDFRendererWithoutChrome(t *testing.T) {
	r := &PDFRenderer{logger: utils.NewDiscardLogger()}
	_, err := r.Render(context.Background(), []byte("<p>x</p>"))
	assert.ErrorIs(t, err, ErrNoChrome)
}

func TestFindChromeBinaryOverride(t *testing.T) {
	if got := FindChromeBinary("/opt/chrome"); got != "/opt/chrome" {
		t.Errorf("FindChromeBinary: got %q, want %q", got, "/opt/chrome")
	}
	t.Setenv("CHROME_BIN", "/env/chrome")
	if got := FindChromeBinary(""); got != "/env/chrome" {
		t.Errorf("FindChromeBinary: got %q, want %q", got, "/env/chrome")
	}
}

func TestPDFRender(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping headless Chrome in short mode")
	}
	r := NewPDFRenderer("", utils.NewDiscardLogger())
	if !r.Available() {
		t.Skip("no Chrome/Chromium binary available")
	}

	doc, err := HTML(NewSheet("Compare", comparisonOf(vehicles()...), generated))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	pdf, err := r.Render(ctx, doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output is not a PDF")
}
