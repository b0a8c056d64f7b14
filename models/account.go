package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// User is the authenticated account returned by the login endpoint.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the persisted authentication state of the application.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// Alert is a saved search that notifies the user about matching listings.
// Zero MinPrice / MaxPrice mean the bound is not set.
type Alert struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	MinPrice     float64   `json:"min_price"`
	MaxPrice     float64   `json:"max_price"`
	CreatedAt    time.Time `json:"created_at"`
	ActiveStatus bool      `json:"active_status"`
}

// UnmarshalJSON accepts price bounds sent as numbers or numeric strings. A
// bound that is neither decodes as 0 (unset).
func (a *Alert) UnmarshalJSON(data []byte) error {
	type plain Alert
	aux := struct {
		*plain
		MinPrice json.RawMessage `json:"min_price"`
		MaxPrice json.RawMessage `json:"max_price"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.MinPrice = looseFloat(aux.MinPrice)
	a.MaxPrice = looseFloat(aux.MaxPrice)
	return nil
}

func looseFloat(raw json.RawMessage) float64 {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Favorite is a saved listing. The backend embeds the full listing record;
// ListingID is nil when it sent anything else (an unpopulated id, null).
type Favorite struct {
	ID        string     `json:"_id"`
	UserID    string     `json:"user_id"`
	ListingID RawListing `json:"listing_id"`
}

// UnmarshalJSON keeps listing_id only when it is an embedded object.
func (f *Favorite) UnmarshalJSON(data []byte) error {
	type plain Favorite
	aux := struct {
		*plain
		ListingID json.RawMessage `json:"listing_id"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.ListingID = nil
	if trimmed := bytes.TrimSpace(aux.ListingID); len(trimmed) > 0 && trimmed[0] == '{' {
		var listing RawListing
		if err := json.Unmarshal(trimmed, &listing); err == nil {
			f.ListingID = listing
		}
	}
	return nil
}

// Profile is the editable part of the user account as served by /users/me.
type Profile struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	ZipCode       string `json:"zip_code,omitempty"`
	ProfileImage  string `json:"profile_image,omitempty"`
}

// ListingSubmission is a validated create-listing payload ready to be sent
// as multipart form data.
type ListingSubmission struct {
	Title        string
	Make         string
	Model        string
	Year         string
	Price        string
	Location     string
	Mileage      string
	FuelType     string
	Transmission string
	Description  string
	Colour       string
	Features     []string
	ImagePaths   []string
}

// ListingDraft is the in-progress state of the create-listing wizard.
// Every field is kept as typed text until submission.
type ListingDraft struct {
	ID           string   `json:"id"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         string   `json:"year"`
	Price        string   `json:"price"`
	Location     string   `json:"location"`
	Mileage      string   `json:"mileage,omitempty"`
	FuelType     string   `json:"fuel_type,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	Colour       string   `json:"colour,omitempty"`
	Description  string   `json:"description,omitempty"`
	Features     []string `json:"features"`
	Images       []string `json:"images"`
}
