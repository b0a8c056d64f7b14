// Package render turns derived listing views into printable output: terminal
// tables, an HTML comparison sheet and its PDF rendition.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"vehicle-marketplace/models"
	"vehicle-marketplace/services"
)

//go:embed templates/compare.html.tmpl
var compareSource string

var compareTemplate = template.Must(template.New("compare").Parse(compareSource))

// Sheet is the view model behind the comparison sheet. Only occupied slots
// become columns.
type Sheet struct {
	Title     string
	Generated time.Time
	Capacity  int
	Columns   []SheetColumn
	Specs     []SheetRow
	Features  []SheetFeature
}

type SheetColumn struct {
	ID       string
	Title    string
	Location string
	Image    string
}

type SheetRow struct {
	Label string
	Cells []SheetCell
}

type SheetCell struct {
	Text string
	Best bool
}

type SheetFeature struct {
	Name string
	Has  []bool
}

// NewSheet projects c onto a Sheet.
func NewSheet(title string, c *services.Comparison, now time.Time) Sheet {
	slots := c.Slots()
	var occupied []int
	sheet := Sheet{Title: title, Generated: now, Capacity: services.MaxComparisonSlots}
	for i, s := range slots {
		if s == nil {
			continue
		}
		occupied = append(occupied, i)
		sheet.Columns = append(sheet.Columns, column(s))
	}

	for _, row := range c.Rows() {
		sr := SheetRow{Label: row.Label, Cells: make([]SheetCell, 0, len(occupied))}
		for _, i := range occupied {
			sr.Cells = append(sr.Cells, SheetCell{
				Text: row.Cells[i],
				Best: row.BestID != "" && slots[i].ID == row.BestID,
			})
		}
		sheet.Specs = append(sheet.Specs, sr)
	}

	for _, row := range c.FeatureRows() {
		sf := SheetFeature{Name: row.Feature, Has: make([]bool, 0, len(occupied))}
		for _, i := range occupied {
			sf.Has = append(sf.Has, row.Has[i])
		}
		sheet.Features = append(sheet.Features, sf)
	}
	return sheet
}

func column(l *models.Listing) SheetColumn {
	return SheetColumn{ID: l.ID, Title: l.Title, Location: l.Location, Image: l.Image}
}

// WriteHTML renders sheet as a standalone HTML document.
func WriteHTML(w io.Writer, sheet Sheet) error {
	if err := compareTemplate.Execute(w, sheet); err != nil {
		return fmt.Errorf("render comparison sheet: %w", err)
	}
	return nil
}

// HTML renders sheet into memory.
func HTML(sheet Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sheet); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
