package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vehicle-marketplace/models"
	"vehicle-marketplace/services"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("10")).Bold(true)
	labelStyle  = cellStyle.Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

var printer = message.NewPrinter(language.English)

// Price formats a listing price, or EmptyCell when the source had none.
func Price(l models.Listing) string {
	if !l.PriceKnown {
		return services.EmptyCell
	}
	return printer.Sprintf("Rs. %.0f", l.Price)
}

func mileage(l models.Listing) string {
	return printer.Sprintf("%.0f km", l.Mileage)
}

func year(l models.Listing) string {
	if l.Year == 0 {
		return services.EmptyCell
	}
	return strconv.Itoa(l.Year)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return services.EmptyCell
	}
	return s
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle)
}

// ListingTable writes one row per listing.
func ListingTable(w io.Writer, listings []models.Listing) {
	if len(listings) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No vehicles found."))
		return
	}

	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{
			l.ID,
			truncate(l.Title, 32),
			Price(l),
			year(l),
			mileage(l),
			orDash(l.FuelType),
			orDash(l.Location),
			orDash(l.Status),
		})
	}

	t := newTable().
		Headers("ID", "TITLE", "PRICE", "YEAR", "MILEAGE", "FUEL", "LOCATION", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d vehicle(s)", len(listings))))
}

// ListingDetail writes every field of l.
func ListingDetail(w io.Writer, l models.Listing) {
	fields := [][]string{
		{"Title", l.Title},
		{"Make", orDash(l.Make)},
		{"Model", orDash(l.Model)},
		{"Year", year(l)},
		{"Price", Price(l)},
		{"Mileage", mileage(l)},
		{"Fuel Type", orDash(l.FuelType)},
		{"Transmission", orDash(l.Transmission)},
		{"Colour", orDash(l.Colour)},
		{"Location", orDash(l.Location)},
		{"Status", orDash(l.Status)},
		{"Features", orDash(strings.Join(l.Features, ", "))},
		{"Images", strconv.Itoa(len(l.Images))},
	}

	t := newTable().
		Rows(fields...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
	if d := strings.TrimSpace(l.Description); d != "" {
		fmt.Fprintln(w, d)
	}
	if l.Image != "" {
		fmt.Fprintln(w, mutedStyle.Render(l.Image))
	}
}

// ComparisonTable writes the specification and feature rows of sheet with the
// best value of each row highlighted.
func ComparisonTable(w io.Writer, sheet Sheet) {
	if len(sheet.Columns) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No vehicles selected for comparison."))
		return
	}

	headers := []string{""}
	for _, c := range sheet.Columns {
		headers = append(headers, truncate(c.Title, 24))
	}

	var rows [][]string
	best := make(map[[2]int]bool)
	for r, spec := range sheet.Specs {
		row := []string{spec.Label}
		for c, cell := range spec.Cells {
			row = append(row, cell.Text)
			if cell.Best {
				best[[2]int{r, c + 1}] = true
			}
		}
		rows = append(rows, row)
	}
	for _, f := range sheet.Features {
		row := []string{f.Name}
		for _, has := range f.Has {
			if has {
				row = append(row, "✓")
			} else {
				row = append(row, "✗")
			}
		}
		rows = append(rows, row)
	}

	t := newTable().
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case best[[2]int{row, col}]:
				return bestStyle
			case col == 0:
				return labelStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// AlertTable writes one row per alert.
func AlertTable(w io.Writer, alerts []models.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No alerts yet."))
		return
	}

	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		state := "paused"
		if a.ActiveStatus {
			state = "active"
		}
		rows = append(rows, []string{
			a.ID,
			a.Make,
			orDash(a.Model),
			bound(a.MinPrice),
			bound(a.MaxPrice),
			state,
		})
	}

	t := newTable().
		Headers("ID", "MAKE", "MODEL", "MIN", "MAX", "STATE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func bound(v float64) string {
	if v <= 0 {
		return "any"
	}
	return printer.Sprintf("Rs. %.0f", v)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
