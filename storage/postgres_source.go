package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

// PostgresSource keeps a local snapshot of the catalogue in PostgreSQL. It
// serves the snapshot as backend-shaped records and can be reseeded.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use source.
func NewPostgresSource(dsn string, retry utils.RetryConfig) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return newPostgresSource(db, retry)
}

func newPostgresSource(db *sql.DB, retry utils.RetryConfig) (*PostgresSource, error) {
	if retry.BaseDelay == 0 {
		retry.BaseDelay = 2 * time.Second
	}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresSource{db: db}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresSource) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS vehicle_listings (
			id           TEXT          PRIMARY KEY,
			title        TEXT          NOT NULL DEFAULT '',
			make         TEXT          NOT NULL DEFAULT '',
			model        TEXT          NOT NULL DEFAULT '',
			year         INTEGER       NOT NULL DEFAULT 0,
			price        NUMERIC(14,2),
			mileage      NUMERIC(12,1) NOT NULL DEFAULT 0,
			fuel_type    TEXT          NOT NULL DEFAULT '',
			transmission TEXT          NOT NULL DEFAULT '',
			location     TEXT          NOT NULL DEFAULT '',
			colour       TEXT          NOT NULL DEFAULT '',
			description  TEXT          NOT NULL DEFAULT '',
			features     TEXT[]        NOT NULL DEFAULT '{}',
			images       TEXT[]        NOT NULL DEFAULT '{}',
			admin_status TEXT          NOT NULL DEFAULT 'approved',
			source_url   TEXT          NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_vehicle_listings_price  ON vehicle_listings(price);
		CREATE INDEX IF NOT EXISTS idx_vehicle_listings_make   ON vehicle_listings(make);
		CREATE INDEX IF NOT EXISTS idx_vehicle_listings_status ON vehicle_listings(admin_status);
	`)
	return err
}

// Write replaces the snapshot with listings in one transaction, inserting in
// batches: on any failure the previous snapshot is left untouched. An empty
// input empties the snapshot. Listings without an id are skipped. An unknown
// price is stored as NULL.
func (ps *PostgresSource) Write(listings []models.Listing) error {
	tx, err := ps.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM vehicle_listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	batch := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ID != "" {
			batch = append(batch, l)
		}
	}

	const batchSize = 50
	for i := 0; i < len(batch); i += batchSize {
		end := min(i+batchSize, len(batch))
		if err := insertBatch(tx, batch[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

const listingColumns = 16

func insertBatch(tx *sql.Tx, batch []models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		base := idx * listingColumns
		placeholders := make([]string, listingColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var price sql.NullFloat64
		if l.PriceKnown {
			price = sql.NullFloat64{Float64: l.Price, Valid: true}
		}
		status := l.Status
		if status == "" {
			status = models.StatusApproved
		}
		valueArgs = append(valueArgs,
			l.ID, l.Title, l.Make, l.Model, l.Year, price, l.Mileage,
			l.FuelType, l.Transmission, l.Location, l.Colour, l.Description,
			pq.Array(nonNil(l.Features)), pq.Array(nonNil(l.Images)), status, l.Source)
	}

	query := fmt.Sprintf(`
		INSERT INTO vehicle_listings (id, title, make, model, year, price, mileage,
			fuel_type, transmission, location, colour, description, features, images, admin_status, source_url)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

// Fetch returns the approved listings in the backend record shape, newest first.
func (ps *PostgresSource) Fetch(ctx context.Context) ([]models.RawListing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, title, make, model, year, price, mileage, fuel_type, transmission,
		       location, colour, description, features, images, admin_status, source_url, created_at
		FROM vehicle_listings
		WHERE admin_status = 'approved'
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch: %w", err)
	}
	defer rows.Close()

	listings := []models.RawListing{}
	for rows.Next() {
		var (
			id, title, vehicleMake, vehicleModel string
			year                                 int
			price                                sql.NullFloat64
			mileage                              float64
			fuel, transmission, location, colour string
			description, status, sourceURL       string
			features, images                     []string
			createdAt                            time.Time
		)
		if err := rows.Scan(
			&id, &title, &vehicleMake, &vehicleModel, &year, &price, &mileage, &fuel, &transmission,
			&location, &colour, &description, pq.Array(&features), pq.Array(&images), &status, &sourceURL, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		imageObjs := make([]any, 0, len(images))
		for _, img := range images {
			imageObjs = append(imageObjs, map[string]any{"image_url": img})
		}
		raw := models.RawListing{
			"_id":          id,
			"title":        title,
			"make":         vehicleMake,
			"model":        vehicleModel,
			"year":         year,
			"mileage":      mileage,
			"fuel_type":    fuel,
			"transmission": transmission,
			"location":     location,
			"colour":       colour,
			"description":  description,
			"features":     features,
			"images":       imageObjs,
			"admin_status": status,
			"source_url":   sourceURL,
			"createdAt":    createdAt.Format(time.RFC3339),
		}
		if price.Valid {
			raw["price"] = price.Float64
		}
		listings = append(listings, raw)
	}
	return listings, rows.Err()
}

// nonNil keeps empty arrays out of NULL, which the NOT NULL columns reject.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (ps *PostgresSource) Close() error {
	return ps.db.Close()
}
