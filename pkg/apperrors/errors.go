package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrLookupMiss marks a reference (feature, template kind, puppet class) that
	// must exist in the management system before seeding can continue.
	ErrLookupMiss = errors.New("required record not registered")

	// ErrValidation is returned when a record fails validation before save.
	ErrValidation = errors.New("validation failed")
)
