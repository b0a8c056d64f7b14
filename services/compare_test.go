package services

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-marketplace/models"
)

func TestComparisonCapacity(t *testing.T) {
	c := NewComparison()
	for _, l := range catalogue()[:4] {
		require.True(t, c.Add(l), "adding %s", l.ID)
	}

	assert.True(t, c.Full())
	assert.False(t, c.Add(catalogue()[4]), "fifth add must be a no-op")
	assert.Equal(t, MaxComparisonSlots, c.Len())
	assert.False(t, c.Contains("5"))
}

func TestComparisonRejectsDuplicatesAndBlankIDs(t *testing.T) {
	c := NewComparison()
	l := catalogue()[0]

	assert.True(t, c.Add(l))
	assert.False(t, c.Add(l))
	assert.False(t, c.Add(models.Listing{Title: "no id"}))
	assert.Equal(t, 1, c.Len())
}

func TestComparisonRemoveKeepsPositions(t *testing.T) {
	c := NewComparison()
	for _, l := range catalogue()[:3] {
		c.Add(l)
	}

	require.True(t, c.Remove("2"))
	assert.False(t, c.Remove("2"))

	slots := c.Slots()
	assert.Equal(t, "1", slots[0].ID)
	assert.Nil(t, slots[1])
	assert.Equal(t, "3", slots[2].ID)
	assert.Nil(t, slots[3])

	// the freed slot is reused first
	c.Add(catalogue()[4])
	assert.Equal(t, "5", c.Slots()[1].ID)
}

func TestComparisonSlotsAreCopies(t *testing.T) {
	c := NewComparison()
	c.Add(catalogue()[0])

	c.Slots()[0].Price = 1
	assert.Equal(t, float64(6500000), c.Occupants()[0].Price)
}

func TestBestValueForPrice(t *testing.T) {
	c := NewComparison()
	c.Add(models.Listing{ID: "a", Price: 30000})
	c.Add(models.Listing{ID: "b", Price: 25000})
	c.Add(models.Listing{ID: "c", Price: 40000})

	id, ok := c.BestValueFor(FieldPrice)
	assert.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestBestValueForSingleOccupant(t *testing.T) {
	c := NewComparison()
	c.Add(models.Listing{ID: "a", Price: 30000})

	for _, f := range []CompareField{FieldPrice, FieldYear, FieldMileage} {
		id, ok := c.BestValueFor(f)
		assert.False(t, ok, f)
		assert.Empty(t, id, f)
	}
}

func TestBestValueForFields(t *testing.T) {
	c := NewComparison()
	c.Add(models.Listing{ID: "a", Price: 100, Year: 2018, Mileage: 50000})
	c.Add(models.Listing{ID: "b", Price: 100, Year: 2022, Mileage: 50000})
	c.Add(models.Listing{ID: "c", Price: 200, Year: 2022, Mileage: 20000})

	tests := []struct {
		field CompareField
		want  string
		ok    bool
	}{
		{FieldPrice, "a", true},
		{FieldYear, "b", true},
		{FieldMileage, "c", true},
		{FieldFuelType, "", false},
		{FieldColour, "", false},
	}
	for _, tt := range tests {
		id, ok := c.BestValueFor(tt.field)
		if id != tt.want || ok != tt.ok {
			t.Errorf("BestValueFor(%s) = (%q, %v); want (%q, %v)", tt.field, id, ok, tt.want, tt.ok)
		}
	}
}

func TestBestValueTieFollowsSlotOrder(t *testing.T) {
	c := NewComparison()
	c.Add(models.Listing{ID: "a", Price: 10})
	c.Add(models.Listing{ID: "b", Price: 5})
	c.Add(models.Listing{ID: "c", Price: 5})
	c.Remove("a")
	c.Add(models.Listing{ID: "d", Price: 5})

	id, _ := c.BestValueFor(FieldPrice)
	assert.Equal(t, "d", id, "slot 0 holds d after refill")
}

func TestFeatureUnion(t *testing.T) {
	c := NewComparison()
	c.Add(models.Listing{ID: "a", Features: []string{"Sunroof", "ABS", "ABS"}})
	c.Add(models.Listing{ID: "b", Features: []string{}})
	c.Add(models.Listing{ID: "c", Features: []string{"Bluetooth", "ABS"}})

	if diff := cmp.Diff([]string{"ABS", "Bluetooth", "Sunroof"}, c.FeatureUnion()); diff != "" {
		t.Errorf("FeatureUnion (-want +got):\n%s", diff)
	}

	rows := c.FeatureRows()
	require.Len(t, rows, 3)
	assert.Equal(t, "ABS", rows[0].Feature)
	assert.Equal(t, []bool{true, false, true, false}, rows[0].Has)
}

func TestFeatureRowsHiddenWhenAllEmpty(t *testing.T) {
	c := NewComparison()
	c.Add(models.Listing{ID: "a"})
	c.Add(models.Listing{ID: "b", Features: []string{}})

	assert.Empty(t, c.FeatureUnion())
	assert.Nil(t, c.FeatureRows())
}

func TestComparisonRows(t *testing.T) {
	c := NewComparison()
	c.Add(models.Listing{ID: "a", Price: 25000000, Year: 2020, Mileage: 12000, FuelType: "Hybrid", Transmission: "Automatic"})
	c.Add(models.Listing{ID: "b", Price: 30000000, Year: 2021, Mileage: 8000, Colour: "Red"})

	rows := c.Rows()
	require.Len(t, rows, 7)

	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	want := []string{"Price (Rs.)", "Year", "Mileage (km)", "Fuel Type", "Transmission", "Condition", "Color"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}

	price := rows[0]
	assert.Equal(t, []string{"Rs. 25,000,000", "Rs. 30,000,000", EmptyCell, EmptyCell}, price.Cells)
	assert.Equal(t, "a", price.BestID)

	assert.Equal(t, []string{"2020", "2021", EmptyCell, EmptyCell}, rows[1].Cells)
	assert.Equal(t, "b", rows[1].BestID)

	assert.Equal(t, "12,000 km", rows[2].Cells[0])
	assert.Equal(t, "b", rows[2].BestID)

	assert.Equal(t, []string{"Hybrid", EmptyCell, EmptyCell, EmptyCell}, rows[3].Cells)
	assert.Equal(t, "Used", rows[5].Cells[1])
	assert.Equal(t, []string{EmptyCell, "Red", EmptyCell, EmptyCell}, rows[6].Cells)
	assert.Empty(t, rows[6].BestID)
}

func TestComparisonRowsOutOfRangeNumbers(t *testing.T) {
	l := newTestNormalizer().Normalize(models.RawListing{
		"_id": "x", "make": "Honda", "model": "Civic", "year": "1e30", "price": 1e30, "mileage": "1e300",
	})
	c := NewComparison()
	require.True(t, c.Add(l))

	rows := c.Rows()
	for _, r := range rows[:3] {
		assert.NotContains(t, r.Cells[0], "-", r.Label)
	}
	assert.True(t, strings.HasPrefix(rows[0].Cells[0], "Rs. 1,000,000,"), rows[0].Cells[0])
	assert.Equal(t, EmptyCell, rows[1].Cells[0])
	assert.Equal(t, "Honda Civic", l.Title)
}

func TestComparisonCandidates(t *testing.T) {
	c := NewComparison()
	c.Add(catalogue()[0])

	all := catalogue()
	assert.Equal(t, []string{"2", "3", "4", "5"}, ids(c.Candidates(all, "")))
	assert.Equal(t, []string{"4"}, ids(c.Candidates(all, " TOYOTA ")))
	assert.Empty(t, c.Candidates(all, "ferrari"))
}
