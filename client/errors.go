package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAuthRequired is returned by protected calls made without a session token.
// No request is sent in that case.
var ErrAuthRequired = errors.New("login required")

// APIError is a non-2xx response from the marketplace API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}

// errorBody is the error payload shape: {"message": ...} or {"error": ...}.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newAPIError picks the server message, then the error field, then fallback.
func newAPIError(status int, body []byte, fallback string) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	msg := fallback
	switch {
	case eb.Message != "":
		msg = eb.Message
	case eb.Error != "":
		msg = eb.Error
	}
	return &APIError{Status: status, Message: msg}
}
