package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"vehicle-marketplace/models"
)

var csvHeader = []string{
	"id", "title", "make", "model", "year", "price", "mileage", "fuel_type",
	"transmission", "location", "colour", "status", "image", "features",
}

// CSVWriter exports normalized listings as CSV.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	cw, err := newCSVWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return cw, nil
}

// NewCSVStream writes CSV to w, e.g. stdout. Close does not close w.
func NewCSVStream(w io.Writer) (*CSVWriter, error) {
	return newCSVWriter(w, nopCloser{})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newCSVWriter(w io.Writer, closer io.Closer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	cw.Flush()
	return &CSVWriter{closer: closer, writer: cw}, nil
}

// Write appends one row per listing. An unknown price is left blank.
func (c *CSVWriter) Write(listings []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		price := ""
		if l.PriceKnown {
			price = strconv.FormatFloat(l.Price, 'f', -1, 64)
		}
		row := []string{
			l.ID,
			l.Title,
			l.Make,
			l.Model,
			strconv.Itoa(l.Year),
			price,
			strconv.FormatFloat(l.Mileage, 'f', -1, 64),
			l.FuelType,
			l.Transmission,
			l.Location,
			l.Colour,
			l.Status,
			l.Image,
			strings.Join(l.Features, "; "),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return err
	}
	return c.closer.Close()
}
