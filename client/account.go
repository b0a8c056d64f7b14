package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"vehicle-marketplace/models"
)

// MyFavorites returns the signed-in user's saved listings.
func (c *Client) MyFavorites(ctx context.Context) ([]models.Favorite, error) {
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: "/favorites/mine", auth: true, fallback: "Failed to load saved listings."})
	if err != nil {
		return nil, err
	}
	return decodeArray[models.Favorite](body, c.logger)
}

// RemoveFavorite unsaves a listing.
func (c *Client) RemoveFavorite(ctx context.Context, listingID string) error {
	_, err := c.doRequest(ctx, request{
		method:   http.MethodDelete,
		path:     "/favorites/" + url.PathEscape(listingID),
		auth:     true,
		fallback: "Failed to remove favorite",
	})
	return err
}

// ClearFavorites unsaves every listing concurrently, stopping at the first error.
func (c *Client) ClearFavorites(ctx context.Context, listingIDs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range listingIDs {
		g.Go(func() error {
			return c.RemoveFavorite(gctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	return nil
}

// ListAlerts returns the signed-in user's alerts.
func (c *Client) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: "/alerts", auth: true, fallback: "Failed to load alerts."})
	if err != nil {
		return nil, err
	}
	return decodeArray[models.Alert](body, c.logger)
}

// CreateAlert saves a new alert and returns it as stored.
func (c *Client) CreateAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	var out models.Alert
	err := c.doJSON(ctx, http.MethodPost, "/alerts", true, a, &out, "Failed to create alert.")
	return out, err
}

// UpdateAlert replaces an alert, e.g. to toggle its active status.
func (c *Client) UpdateAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	var out models.Alert
	err := c.doJSON(ctx, http.MethodPut, "/alerts/"+url.PathEscape(a.ID), true, a, &out, "Failed to update alert.")
	return out, err
}

// DeleteAlert removes an alert.
func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, request{
		method:   http.MethodDelete,
		path:     "/alerts/" + url.PathEscape(id),
		auth:     true,
		fallback: "Failed to delete alert.",
	})
	return err
}

// GetProfile returns the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context) (models.Profile, error) {
	var out models.Profile
	err := c.doJSON(ctx, http.MethodGet, "/users/me", true, nil, &out, "Failed to fetch profile data")
	return out, err
}

// UpdateProfile saves p as multipart form data, attaching imagePath as the
// profile image when it is not empty.
func (c *Client) UpdateProfile(ctx context.Context, p models.Profile, imagePath string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range []struct{ name, value string }{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"email", p.Email},
		{"contact_number", p.ContactNumber},
		{"address", p.Address},
		{"city", p.City},
		{"state", p.State},
		{"zip_code", p.ZipCode},
	} {
		if err := w.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if imagePath != "" {
		if err := attachFile(w, "profile_image", imagePath); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	_, err := c.doRequest(ctx, request{
		method:   http.MethodPut,
		path:     "/users/me",
		body:     &buf,
		ctype:    w.FormDataContentType(),
		auth:     true,
		fallback: "Failed to update profile",
	})
	return err
}
