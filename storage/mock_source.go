package storage

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"vehicle-marketplace/models"
)

//go:embed fixtures/vehicles.yaml
var mockFixture []byte

// MockSource serves the built-in demo catalogue.
type MockSource struct {
	data []byte
}

// NewMockSource returns a source over the embedded fixture.
func NewMockSource() *MockSource {
	return &MockSource{data: mockFixture}
}

// NewMockSourceFromYAML returns a source over a caller-provided YAML list.
func NewMockSourceFromYAML(data []byte) *MockSource {
	return &MockSource{data: data}
}

// Fetch decodes the fixture afresh on every call so callers never share maps.
func (s *MockSource) Fetch(ctx context.Context) ([]models.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := yaml.Unmarshal(s.data, &records); err != nil {
		return nil, fmt.Errorf("mock: decode fixture: %w", err)
	}
	out := make([]models.RawListing, 0, len(records))
	for _, r := range records {
		out = append(out, models.RawListing(r))
	}
	return out, nil
}
