package services

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

// InsightService aggregates listing collections for the seller dashboard and
// the admin overview.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes moderation counts, price statistics and per-make counts.
// Listings without a known price are left out of the price statistics.
func (s *InsightService) Generate(listings []models.Listing) *models.ListingStats {
	report := &models.ListingStats{
		ByMake: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.Total = len(listings)

	var priced []*models.Listing
	var dated []*models.Listing

	for i := range listings {
		l := &listings[i]
		switch l.Status {
		case models.StatusApproved:
			report.Approved++
		case models.StatusRejected:
			report.Rejected++
		default:
			report.Pending++
		}
		if l.PriceKnown {
			priced = append(priced, l)
		}
		if l.Year > 0 {
			dated = append(dated, l)
		}
		if l.Make != "" {
			report.ByMake[l.Make]++
		}
	}

	if len(priced) > 0 {
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		report.MostExpensive = priced[0]
		var total float64
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
				report.MostExpensive = l
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
	}

	// Top 5 newest, stable so equal years keep fetch order
	slices.SortStableFunc(dated, func(a, b *models.Listing) int {
		return b.Year - a.Year
	})
	if len(dated) > 5 {
		report.NewestYear = dated[:5]
	} else {
		report.NewestYear = dated
	}

	s.logger.Debug("listing stats generated",
		"total", report.Total,
		"approved", report.Approved,
		"pending", report.Pending,
		"rejected", report.Rejected,
	)
	return report
}

// Print writes a terminal report of r to w.
func (s *InsightService) Print(w io.Writer, title string, r *models.ListingStats) {
	p := message.NewPrinter(language.English)
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  %s\033[0m\n", strings.ToUpper(title))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.Total)
	fmt.Fprintf(w, "  Approved       : \033[1;32m%d\033[0m\n", r.Approved)
	fmt.Fprintf(w, "  Pending        : \033[1;33m%d\033[0m\n", r.Pending)
	fmt.Fprintf(w, "  Rejected       : \033[1;31m%d\033[0m\n", r.Rejected)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.MostExpensive != nil {
		fmt.Fprintf(w, "  Average price : \033[1;32m%s\033[0m\n", p.Sprintf("Rs. %.2f", r.AveragePrice))
		fmt.Fprintf(w, "  Minimum price : \033[1;32m%s\033[0m\n", p.Sprintf("Rs. %.0f", r.MinPrice))
		fmt.Fprintf(w, "  Maximum price : \033[1;32m%s\033[0m\n", p.Sprintf("Rs. %.0f", r.MaxPrice))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Title, 50))
		fmt.Fprintf(w, "  Location : %s\n", r.MostExpensive.Location)
		fmt.Fprintf(w, "  Price    : \033[1;31m%s\033[0m\n", p.Sprintf("Rs. %.0f", r.MostExpensive.Price))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Newest Vehicles\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.NewestYear) == 0 {
		fmt.Fprintf(w, "  No dated listings found\n")
	} else {
		for i, l := range r.NewestYear {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%d\033[0m\n", i+1, truncate(l.Title, 38), l.Year)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Make\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByMake) == 0 {
		fmt.Fprintf(w, "  No make data\n")
	} else {
		type makeCount struct {
			name  string
			count int
		}
		var makes []makeCount
		for name, cnt := range r.ByMake {
			makes = append(makes, makeCount{name, cnt})
		}
		sort.Slice(makes, func(i, j int) bool {
			if makes[i].count != makes[j].count {
				return makes[i].count > makes[j].count
			}
			return makes[i].name < makes[j].name
		})
		for _, mc := range makes {
			bar := strings.Repeat("█", mc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(mc.name, 28), bar, mc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
