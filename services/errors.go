package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField is returned when a wizard field name is not recognised.
	ErrUnknownField = errors.New("unknown listing field")
	// ErrListingNotFound is returned when no listing carries the requested id.
	ErrListingNotFound = errors.New("listing not found")
	// ErrTooManyVehicles is returned when more ids are compared than there are slots.
	ErrTooManyVehicles = errors.New("too many vehicles to compare")
)

// ValidationError reports required fields that were left empty and the
// wizard step the user is sent back to.
type ValidationError struct {
	Step    int
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}
