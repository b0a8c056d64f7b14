package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"vehicle-marketplace/models"
)

// Wizard steps, numbered from 1 as shown to the user.
const (
	StepBasicInfo = iota + 1
	StepSpecifications
	StepImages
	StepReview
)

// MaxListingImages is the number of images the backend accepts per listing.
const MaxListingImages = 10

// WizardSteps holds the step titles, indexed by step-1.
var WizardSteps = []string{"Basic Info", "Specifications", "Images", "Review"}

// Option lists offered by the wizard.
var (
	TransmissionTypes = []string{"Automatic", "Manual", "CVT", "Semi-Automatic"}
	Conditions        = []string{"New", "Used"}
	CommonFeatures    = []string{
		"Air Conditioning", "Power Steering", "Power Windows", "ABS", "Airbags",
		"Sunroof", "Leather Seats", "Navigation System", "Bluetooth", "Backup Camera",
		"Cruise Control", "Alloy Wheels", "Keyless Entry", "Push Start",
		"Parking Sensors", "Lane Assist",
	}
)

// ListingWizard holds the multi-step create-listing form.
type ListingWizard struct {
	step  int
	draft models.ListingDraft
}

// NewListingWizard starts an empty draft on the first step.
func NewListingWizard() *ListingWizard {
	return &ListingWizard{
		step: StepBasicInfo,
		draft: models.ListingDraft{
			ID:       uuid.NewString(),
			Features: []string{},
			Images:   []string{},
		},
	}
}

// Step returns the current step number.
func (w *ListingWizard) Step() int { return w.step }

// StepTitle returns the title of the current step.
func (w *ListingWizard) StepTitle() string { return WizardSteps[w.step-1] }

// Next advances one step, stopping at the review step.
func (w *ListingWizard) Next() int {
	if w.step < StepReview {
		w.step++
	}
	return w.step
}

// Prev goes back one step, stopping at the first.
func (w *ListingWizard) Prev() int {
	if w.step > StepBasicInfo {
		w.step--
	}
	return w.step
}

// Draft returns a copy of the current form state.
func (w *ListingWizard) Draft() models.ListingDraft {
	d := w.draft
	d.Features = slices.Clone(w.draft.Features)
	d.Images = slices.Clone(w.draft.Images)
	return d
}

// Set assigns a form field by its wire name.
func (w *ListingWizard) Set(field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case "make":
		w.draft.Make = value
	case "model":
		w.draft.Model = value
	case "year":
		w.draft.Year = value
	case "price":
		w.draft.Price = value
	case "location":
		w.draft.Location = value
	case "mileage":
		w.draft.Mileage = value
	case "fuel_type", "fuelType":
		w.draft.FuelType = value
	case "transmission":
		w.draft.Transmission = value
	case "condition":
		w.draft.Condition = value
	case "colour", "color":
		w.draft.Colour = value
	case "description":
		w.draft.Description = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// ToggleFeature selects feature, or deselects it when already selected.
func (w *ListingWizard) ToggleFeature(feature string) {
	w.draft.Features = toggle(w.draft.Features, feature)
}

// AddImage appends an image path. It returns false once MaxListingImages
// images are attached.
func (w *ListingWizard) AddImage(path string) bool {
	if len(w.draft.Images) >= MaxListingImages {
		return false
	}
	w.draft.Images = append(w.draft.Images, path)
	return true
}

// RemoveImage drops the image at index i.
func (w *ListingWizard) RemoveImage(i int) bool {
	if i < 0 || i >= len(w.draft.Images) {
		return false
	}
	w.draft.Images = slices.Delete(w.draft.Images, i, i+1)
	return true
}

// Submission validates the draft and builds the create-listing payload.
// When a required field is empty it returns a *ValidationError and moves the
// wizard back to the first step.
func (w *ListingWizard) Submission() (models.ListingSubmission, error) {
	d := w.draft
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"make", d.Make},
		{"model", d.Model},
		{"year", d.Year},
		{"price", d.Price},
		{"location", d.Location},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		w.step = StepBasicInfo
		return models.ListingSubmission{}, &ValidationError{Step: StepBasicInfo, Missing: missing}
	}

	return models.ListingSubmission{
		Title:        fmt.Sprintf("%s %s %s", d.Year, d.Make, d.Model),
		Make:         d.Make,
		Model:        d.Model,
		Year:         d.Year,
		Price:        d.Price,
		Location:     d.Location,
		Mileage:      d.Mileage,
		FuelType:     d.FuelType,
		Transmission: d.Transmission,
		Description:  d.Description,
		Colour:       d.Colour,
		Features:     slices.Clone(d.Features),
		ImagePaths:   slices.Clone(d.Images),
	}, nil
}
