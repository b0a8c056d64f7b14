package services

import (
	"bytes"
	"strings"
	"testing"

	"vehicle-marketplace/models"
)

func sampleListings() []models.Listing {
	return []models.Listing{
		{Title: "Toyota Aqua", Make: "Toyota", Price: 6500000, PriceKnown: true, Year: 2019, Status: models.StatusApproved},
		{Title: "Honda Civic", Make: "Honda", Price: 12500000, PriceKnown: true, Year: 2021, Status: models.StatusPending},
		{Title: "Toyota Prado", Make: "Toyota", Price: 38000000, PriceKnown: true, Year: 2015, Status: models.StatusApproved},
		{Title: "Nissan Leaf", Make: "Nissan", Price: 0, PriceKnown: false, Year: 2017, Status: ""},
		{Title: "Suzuki Alto", Make: "Suzuki", Price: 3000000, PriceKnown: true, Year: 0, Status: models.StatusRejected},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.Total != 5 {
		t.Errorf("Total: got %d, want 5", r.Total)
	}
	if r.Approved != 2 {
		t.Errorf("Approved: got %d, want 2", r.Approved)
	}
	if r.Pending != 2 {
		t.Errorf("Pending: got %d, want 2 (missing status counts as pending)", r.Pending)
	}
	if r.Rejected != 1 {
		t.Errorf("Rejected: got %d, want 1", r.Rejected)
	}
	if r.ByMake["Toyota"] != 2 {
		t.Errorf("ByMake[Toyota]: got %d, want 2", r.ByMake["Toyota"])
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	wantAvg := 15000000.0
	if r.AveragePrice != wantAvg {
		t.Errorf("AveragePrice: got %.2f, want %.2f", r.AveragePrice, wantAvg)
	}
	if r.MinPrice != 3000000 {
		t.Errorf("MinPrice: got %.2f, want 3000000", r.MinPrice)
	}
	if r.MaxPrice != 38000000 {
		t.Errorf("MaxPrice: got %.2f, want 38000000", r.MaxPrice)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.Title != "Toyota Prado" {
		t.Errorf("MostExpensive: got %q, want %q", r.MostExpensive.Title, "Toyota Prado")
	}
}

func TestInsightMostExpensiveFirstElement(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate([]models.Listing{
		{Title: "Top", Price: 900, PriceKnown: true},
		{Title: "Low", Price: 100, PriceKnown: true},
	})
	if r.MostExpensive == nil || r.MostExpensive.Title != "Top" {
		t.Errorf("MostExpensive: got %+v, want Top", r.MostExpensive)
	}
}

func TestInsightNewest(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if len(r.NewestYear) != 4 {
		t.Fatalf("NewestYear: got %d entries, want 4 (undated excluded)", len(r.NewestYear))
	}
	if r.NewestYear[0].Title != "Honda Civic" {
		t.Errorf("NewestYear[0]: got %q, want %q", r.NewestYear[0].Title, "Honda Civic")
	}
}

func TestInsightEmpty(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.Total != 0 || r.MostExpensive != nil || r.ByMake == nil {
		t.Errorf("empty report: got %+v", r)
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, "My listings", svc.Generate(sampleListings()))

	out := buf.String()
	for _, want := range []string{"MY LISTINGS", "Approved", "Rs. 38,000,000", "Toyota Prado", "Toyota"} {
		if !strings.Contains(out, want) {
			t.Errorf("Print output missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"a very long listing title", 10, "a very ..."},
		{"Mahindra ස්කෝපියෝ", 12, "Mahindra ..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
