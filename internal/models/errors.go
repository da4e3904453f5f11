package models

import (
	"fmt"
	"strings"
)

// Validation messages returned in field error maps.
const (
	ErrRequiredField = "This field is required."
	ErrNegativePrice = "Product price must be greater than or equal to zero!"
)

// FieldErrors maps a payload field to the validation messages raised for it.
// It renders directly as the 400 response body.
type FieldErrors map[string][]string

// Add appends a message for the given field.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Empty reports whether no field has errors.
func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// Error implements the error interface so validation failures can travel
// through ordinary error returns.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msgs := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
