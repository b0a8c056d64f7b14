package server

import (
	"vehicle-marketplace/models"
	"vehicle-marketplace/services"
)

type criteriaDTO struct {
	Query     string   `json:"q"`
	Makes     []string `json:"makes"`
	FuelTypes []string `json:"fuels"`
	MinPrice  *float64 `json:"minPrice,omitempty"`
	MaxPrice  *float64 `json:"maxPrice,omitempty"`
}

func toCriteriaDTO(c models.Criteria) criteriaDTO {
	dto := criteriaDTO{Query: c.Query, Makes: c.Makes, FuelTypes: c.FuelTypes}
	if dto.Makes == nil {
		dto.Makes = []string{}
	}
	if dto.FuelTypes == nil {
		dto.FuelTypes = []string{}
	}
	if c.Price != nil {
		lo, hi := c.Price.Min, c.Price.Max
		dto.MinPrice, dto.MaxPrice = &lo, &hi
	}
	return dto
}

type searchResponse struct {
	Criteria      criteriaDTO      `json:"criteria"`
	Sort          services.SortKey `json:"sort"`
	ActiveFilters int              `json:"activeFilters"`
	Facets        services.Facets  `json:"facets"`
	Total         int              `json:"total"`
	Count         int              `json:"count"`
	Listings      []models.Listing `json:"listings"`
}

type specRowDTO struct {
	Label  string   `json:"label"`
	Field  string   `json:"field"`
	Cells  []string `json:"cells"`
	BestID string   `json:"bestId,omitempty"`
}

type featureRowDTO struct {
	Feature string `json:"feature"`
	Has     []bool `json:"has"`
}

type compareResponse struct {
	Slots    []*models.Listing `json:"slots"`
	Rows     []specRowDTO      `json:"rows"`
	Features []featureRowDTO   `json:"features,omitempty"`
}

func toCompareResponse(c *services.Comparison) compareResponse {
	resp := compareResponse{Slots: c.Slots()}
	for _, r := range c.Rows() {
		resp.Rows = append(resp.Rows, specRowDTO{Label: r.Label, Field: string(r.Field), Cells: r.Cells, BestID: r.BestID})
	}
	for _, f := range c.FeatureRows() {
		resp.Features = append(resp.Features, featureRowDTO{Feature: f.Feature, Has: f.Has})
	}
	return resp
}
