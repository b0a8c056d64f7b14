package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-marketplace/client"
	"vehicle-marketplace/models"
	"vehicle-marketplace/render"
	"vehicle-marketplace/services"
	"vehicle-marketplace/storage"
	"vehicle-marketplace/utils"
)

type fakePDF struct {
	doc []byte
	err error
}

func (f *fakePDF) Render(_ context.Context, doc []byte) ([]byte, error) {
	f.doc = doc
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type failingSource struct{ err error }

func (f failingSource) Fetch(context.Context) ([]models.RawListing, error) { return nil, f.err }

func newTestRouter(src services.ListingFetcher, pdf PDFRenderer) http.Handler {
	logger := utils.NewDiscardLogger()
	n := services.NewNormalizer(services.NormalizerOptions{BaseURL: "http://api.test"}, logger)
	h := NewHandlers(services.NewCatalogue(src, n, 2, logger), pdf, logger)
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC) }
	return NewRouter(h, []string{"http://localhost:5173"}, logger)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTraceIDHeader(t *testing.T) {
	h := newTestRouter(storage.NewMockSource(), nil)

	rec := get(t, h, "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", "6f1c1f39-5e0c-4a5e-9a9b-0a4f0e1d2c3b")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "6f1c1f39-5e0c-4a5e-9a9b-0a4f0e1d2c3b", rec.Header().Get("X-Trace-ID"))
}

func TestSearch(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/search?fuels=Electric&sort=price-low")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 8, resp.Total)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 1, resp.ActiveFilters)
	assert.Equal(t, services.SortPriceLow, resp.Sort)
	assert.Equal(t, []string{"Electric"}, resp.Criteria.FuelTypes)
	require.Len(t, resp.Listings, 2)
	assert.Equal(t, "3", resp.Listings[0].ID)
	assert.Equal(t, "5", resp.Listings[1].ID)
	assert.Contains(t, resp.Facets.Makes, "Tesla")
}

func TestSearchPriceRangeAndQuery(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/search?q=porsche&minPrice=100000&maxPrice=120000")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Listings, 1)
	assert.Equal(t, "4", resp.Listings[0].ID)
	require.NotNil(t, resp.Criteria.MaxPrice)
	assert.Equal(t, 120000.0, *resp.Criteria.MaxPrice)
}

func TestSearchUpstreamError(t *testing.T) {
	h := newTestRouter(failingSource{err: &client.APIError{Status: 500, Message: "db offline"}}, nil)
	rec := get(t, h, "/search")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"db offline"}`, rec.Body.String())

	h = newTestRouter(failingSource{err: errors.New("dial tcp: refused")}, nil)
	rec = get(t, h, "/search")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to load listings."}`, rec.Body.String())
}

func TestGetListing(t *testing.T) {
	h := newTestRouter(storage.NewMockSource(), nil)

	rec := get(t, h, "/listings/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var l models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, "Mercedes-Benz", l.Make)

	rec = get(t, h, "/listings/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareJSON(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/compare?ids=1,6,3")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp compareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, services.MaxComparisonSlots)
	assert.Equal(t, "1", resp.Slots[0].ID)
	assert.Equal(t, "6", resp.Slots[1].ID)
	assert.Equal(t, "3", resp.Slots[2].ID)
	assert.Nil(t, resp.Slots[3])

	require.NotEmpty(t, resp.Rows)
	assert.Equal(t, "Price (Rs.)", resp.Rows[0].Label)
	assert.Equal(t, "6", resp.Rows[0].BestID)
	assert.Equal(t, services.EmptyCell, resp.Rows[0].Cells[3])
}

func TestCompareTooMany(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/compare?ids=1,2,3,4,5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareUnknownID(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/compare?ids=1,99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareHTML(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/compare.html?ids=1,2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "2023 BMW M4 Competition")
	assert.Contains(t, rec.Body.String(), "Generated 2 Jan 2026 03:04")
}

func TestComparePDF(t *testing.T) {
	pdf := &fakePDF{}
	rec := get(t, newTestRouter(storage.NewMockSource(), pdf), "/compare.pdf?ids=1,2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "%PDF")
	assert.Contains(t, string(pdf.doc), "2022 Mercedes-Benz E-Class")
}

func TestComparePDFUnavailable(t *testing.T) {
	rec := get(t, newTestRouter(storage.NewMockSource(), nil), "/compare.pdf?ids=1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, newTestRouter(storage.NewMockSource(), &fakePDF{err: render.ErrNoChrome}), "/compare.pdf?ids=1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(storage.NewMockSource(), nil)
	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
