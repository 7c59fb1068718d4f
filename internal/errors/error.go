// Package errors provides the error taxonomy for catalog operations.
package errors

import "errors"

var (
	// ErrNotFound is returned when an update or delete references an id
	// that is not present in the catalog.
	ErrNotFound = errors.New("product not found")

	// ErrValidation is returned when a write would violate a store
	// invariant (empty name, negative quantity). The store state is
	// unchanged when this error is returned.
	ErrValidation = errors.New("validation failed")

	// ErrSchema is returned when a tabular source lacks a usable name
	// column. Fatal for that upload only; no rows are inserted.
	ErrSchema = errors.New("no usable name column")

	// ErrExtraction is returned when a source item fails to yield text
	// (unreadable image, OCR engine failure, PDF decode failure).
	ErrExtraction = errors.New("text extraction failed")
)
