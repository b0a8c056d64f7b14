package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vehicle-marketplace/client"
	"vehicle-marketplace/render"
	"vehicle-marketplace/services"
	"vehicle-marketplace/utils"
)

const sheetTitle = "Vehicle Comparison"

// Handlers serves the view routes.
type Handlers struct {
	catalogue *services.Catalogue
	pdf       PDFRenderer
	logger    *utils.Logger
	now       func() time.Time
}

// NewHandlers creates the handlers. pdf may be nil, in which case the PDF
// route answers 503.
func NewHandlers(catalogue *services.Catalogue, pdf PDFRenderer, logger *utils.Logger) *Handlers {
	return &Handlers{catalogue: catalogue, pdf: pdf, logger: logger, now: time.Now}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Search handles GET /search with the same query parameters the search page
// mirrors into its URL, plus sort.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	logger := utils.LoggerFromContext(r.Context(), h.logger).With("handler", "Search")

	q := r.URL.Query()
	criteria := services.DecodeCriteria(q)
	key := services.ParseSortKey(q.Get(services.ParamSort))

	res, err := h.catalogue.Search(r.Context(), criteria, key)
	if err != nil {
		logger.Error("search failed", "error", err)
		h.writeError(w, err, "Failed to load listings.")
		return
	}

	RespondWithJSON(w, http.StatusOK, searchResponse{
		Criteria:      toCriteriaDTO(criteria),
		Sort:          key,
		ActiveFilters: services.ActiveFilterCount(criteria),
		Facets:        res.Facets,
		Total:         res.Total,
		Count:         len(res.Listings),
		Listings:      res.Listings,
	})
}

// GetListing handles GET /listings/{id}.
func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	logger := utils.LoggerFromContext(r.Context(), h.logger).With("handler", "GetListing")

	id := chi.URLParam(r, "id")
	l, err := h.catalogue.Get(r.Context(), id)
	if err != nil {
		logger.Warn("get listing failed", "id", id, "error", err)
		h.writeError(w, err, "Failed to load listing.")
		return
	}
	RespondWithJSON(w, http.StatusOK, l)
}

// Compare handles GET /compare?ids=a,b,c.
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	cmp, ok := h.loadComparison(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, toCompareResponse(cmp))
}

// CompareHTML handles GET /compare.html.
func (h *Handlers) CompareHTML(w http.ResponseWriter, r *http.Request) {
	cmp, ok := h.loadComparison(w, r)
	if !ok {
		return
	}
	doc, err := render.HTML(render.NewSheet(sheetTitle, cmp, h.now()))
	if err != nil {
		h.logger.Error("render comparison sheet", "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to render comparison.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// ComparePDF handles GET /compare.pdf.
func (h *Handlers) ComparePDF(w http.ResponseWriter, r *http.Request) {
	logger := utils.LoggerFromContext(r.Context(), h.logger).With("handler", "ComparePDF")

	if h.pdf == nil {
		WriteJSONError(w, http.StatusServiceUnavailable, "PDF export is not available.")
		return
	}
	cmp, ok := h.loadComparison(w, r)
	if !ok {
		return
	}
	doc, err := render.HTML(render.NewSheet(sheetTitle, cmp, h.now()))
	if err != nil {
		logger.Error("render comparison sheet", "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to render comparison.")
		return
	}
	pdf, err := h.pdf.Render(r.Context(), doc)
	if err != nil {
		logger.Error("print comparison pdf", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrNoChrome) {
			status = http.StatusServiceUnavailable
		}
		WriteJSONError(w, status, "Failed to export comparison.")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="comparison.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handlers) loadComparison(w http.ResponseWriter, r *http.Request) (*services.Comparison, bool) {
	logger := utils.LoggerFromContext(r.Context(), h.logger).With("handler", "Compare")

	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	cmp, err := h.catalogue.Compare(r.Context(), ids)
	if err != nil {
		logger.Warn("load comparison failed", "ids", ids, "error", err)
		h.writeError(w, err, "Failed to load listings.")
		return nil, false
	}
	return cmp, true
}

// writeError maps domain and upstream errors onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, err error, fallback string) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, services.ErrListingNotFound):
		WriteJSONError(w, http.StatusNotFound, "Listing not found.")
	case errors.Is(err, services.ErrTooManyVehicles):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		WriteJSONError(w, http.StatusNotFound, apiErr.Message)
	case errors.As(err, &apiErr):
		WriteJSONError(w, http.StatusBadGateway, apiErr.Message)
	default:
		WriteJSONError(w, http.StatusBadGateway, fallback)
	}
}
