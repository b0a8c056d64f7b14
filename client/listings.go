package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"vehicle-marketplace/models"
)

// maxUploadImages mirrors the backend's upload.array("images", 10).
const maxUploadImages = 10

// ListListings returns the public (approved) listings.
func (c *Client) ListListings(ctx context.Context) ([]models.RawListing, error) {
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: "/listings", fallback: "Failed to load listings."})
	if err != nil {
		return nil, err
	}
	return decodeArray[models.RawListing](body, c.logger)
}

// GetListing returns one listing.
func (c *Client) GetListing(ctx context.Context, id string) (models.RawListing, error) {
	var out models.RawListing
	path := "/listings/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, false, nil, &out, "Failed to load listing."); err != nil {
		return nil, err
	}
	return out, nil
}

// MyListings returns the signed-in seller's listings in every moderation state.
func (c *Client) MyListings(ctx context.Context) ([]models.RawListing, error) {
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: "/listings/mine", auth: true, fallback: "Failed to load your listings."})
	if err != nil {
		return nil, err
	}
	return decodeArray[models.RawListing](body, c.logger)
}

// DeleteListing removes one of the seller's listings.
func (c *Client) DeleteListing(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, request{
		method:   http.MethodDelete,
		path:     "/listings/" + url.PathEscape(id),
		auth:     true,
		fallback: "Failed to delete listing.",
	})
	return err
}

// CreateListing uploads a new listing as multipart form data. At most ten
// image files are attached.
func (c *Client) CreateListing(ctx context.Context, sub models.ListingSubmission) (models.RawListing, error) {
	if c.sessions.Token() == "" {
		return nil, ErrAuthRequired
	}

	body, ctype, err := encodeSubmission(sub)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, request{
		method:   http.MethodPost,
		path:     "/listings",
		body:     body,
		ctype:    ctype,
		auth:     true,
		fallback: "Failed to submit listing.",
	})
	if err != nil {
		return nil, err
	}

	var created models.RawListing
	if err := json.Unmarshal(resp, &created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return created, nil
}

func encodeSubmission(sub models.ListingSubmission) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct {
		name, value string
		required    bool
	}{
		{"title", sub.Title, true},
		{"make", sub.Make, true},
		{"model", sub.Model, true},
		{"year", sub.Year, true},
		{"price", sub.Price, true},
		{"location", sub.Location, true},
		{"mileage", sub.Mileage, false},
		{"fuel_type", sub.FuelType, false},
		{"transmission", sub.Transmission, false},
		{"description", sub.Description, false},
		{"colour", sub.Colour, false},
	}
	for _, f := range fields {
		if !f.required && f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	features := sub.Features
	if features == nil {
		features = []string{}
	}
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return nil, "", fmt.Errorf("encode features: %w", err)
	}
	if err := w.WriteField("features", string(featuresJSON)); err != nil {
		return nil, "", fmt.Errorf("write field features: %w", err)
	}

	images := sub.ImagePaths
	if len(images) > maxUploadImages {
		images = images[:maxUploadImages]
	}
	for _, path := range images {
		if err := attachFile(w, "images", path); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy image %s: %w", path, err)
	}
	return nil
}
