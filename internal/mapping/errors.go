package mapping

import (
	"errors"
	"fmt"
)

// Domain-specific errors for mapping operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidMapping is wrapped by every ValidationError.
	ErrInvalidMapping = errors.New("mapping: invalid mapping configuration")

	// ErrNoTranslations is returned when a document has no translations.
	// A translator with nothing to translate is a configuration error.
	ErrNoTranslations = errors.New("mapping: no translations configured")

	// ErrDocumentUnreadable is returned when the mapping file cannot be read.
	ErrDocumentUnreadable = errors.New("mapping: document unreadable")

	// ErrDocumentMalformed is returned when the mapping file cannot be decoded.
	ErrDocumentMalformed = errors.New("mapping: document malformed")
)

// ValidationError describes one rule that failed validation.
type ValidationError struct {
	// Index is the position of the offending rule in the translations list.
	Index int
	// Field is the document field name (sourceTopic, destinationTopics, ...).
	Field string
	// Reason is a human-readable description of the failure.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("mapping: translations[%d].%s: %s", e.Index, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidMapping.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidMapping
}
