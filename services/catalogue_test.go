package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-marketplace/models"
)

func rawCatalogue() []models.RawListing {
	return []models.RawListing{
		{"_id": "10", "make": "Toyota", "model": "Aqua", "year": 2019, "price": 6500000, "fuel_type": "Hybrid"},
		{"_id": "11", "make": "Honda", "model": "Civic", "year": 2021, "price": "12500000", "fuel_type": "Petrol"},
		{"_id": "12", "make": "Toyota", "model": "Prado", "year": 2015, "price": 38000000, "fuel_type": "Diesel", "features": []any{"4WD"}},
	}
}

// getterSource also serves single listings, counting the calls.
type getterSource struct {
	fakeListingFetcher
	gets atomic.Int32
}

func (g *getterSource) Get(_ context.Context, id string) (models.RawListing, error) {
	g.gets.Add(1)
	for _, r := range g.raw {
		if r["_id"] == id {
			return r, nil
		}
	}
	return nil, errors.New("404")
}

func newTestCatalogue(src ListingFetcher) *Catalogue {
	return NewCatalogue(src, newTestNormalizer(), 2, newTestLogger())
}

func TestCatalogueSearch(t *testing.T) {
	cat := newTestCatalogue(&fakeListingFetcher{raw: rawCatalogue()})

	res, err := cat.Search(context.Background(), models.Criteria{Makes: []string{"Toyota"}}, SortPriceHigh)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"12", "10"}, ids(res.Listings))
	assert.Equal(t, []string{"Honda", "Toyota"}, res.Facets.Makes)
}

func TestCatalogueSearchFetchError(t *testing.T) {
	boom := errors.New("backend down")
	cat := newTestCatalogue(&fakeListingFetcher{err: boom})

	_, err := cat.Search(context.Background(), models.Criteria{}, SortLatest)
	assert.ErrorIs(t, err, boom)
}

func TestCatalogueGetWithoutGetter(t *testing.T) {
	cat := newTestCatalogue(&fakeListingFetcher{raw: rawCatalogue()})

	l, err := cat.Get(context.Background(), "11")
	require.NoError(t, err)
	assert.Equal(t, "2021 Honda Civic", l.Title)

	_, err = cat.Get(context.Background(), "99")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestCatalogueCompareUsesGetter(t *testing.T) {
	src := &getterSource{fakeListingFetcher: fakeListingFetcher{raw: rawCatalogue()}}
	cat := newTestCatalogue(src)

	cmp, err := cat.Compare(context.Background(), []string{"12", " ", "10", "12"})
	require.NoError(t, err)

	assert.EqualValues(t, 2, src.gets.Load())
	occ := cmp.Occupants()
	require.Len(t, occ, 2)
	assert.Equal(t, "12", occ[0].ID)
	assert.Equal(t, "10", occ[1].ID)
	assert.Equal(t, EmptyCell, occ[0].Transmission)

	best, ok := cmp.BestValueFor(FieldPrice)
	assert.True(t, ok)
	assert.Equal(t, "10", best)
}

func TestCatalogueCompareGetterError(t *testing.T) {
	src := &getterSource{fakeListingFetcher: fakeListingFetcher{raw: rawCatalogue()}}
	_, err := newTestCatalogue(src).Compare(context.Background(), []string{"10", "missing"})
	assert.Error(t, err)
}

func TestCatalogueCompareFromFullFetch(t *testing.T) {
	cat := newTestCatalogue(&fakeListingFetcher{raw: rawCatalogue()})

	cmp, err := cat.Compare(context.Background(), []string{"11", "12"})
	require.NoError(t, err)
	assert.Equal(t, 2, cmp.Len())
	assert.Equal(t, []string{"4WD"}, cmp.FeatureUnion())

	_, err = cat.Compare(context.Background(), []string{"11", "nope"})
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestCatalogueCompareLimits(t *testing.T) {
	cat := newTestCatalogue(&fakeListingFetcher{raw: rawCatalogue()})

	_, err := cat.Compare(context.Background(), []string{"1", "2", "3", "4", "5"})
	assert.ErrorIs(t, err, ErrTooManyVehicles)

	cmp, err := cat.Compare(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cmp.Len())
}
