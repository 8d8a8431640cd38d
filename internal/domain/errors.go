package domain

import "errors"

var (
	// ErrNotFound marks lookups for unknown template, schedule or notification ids.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks rejected input, including malformed trigger
	// expressions and empty response text.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyResolved is returned when a response or expiry loses the race
	// against the other terminal transition.
	ErrAlreadyResolved = errors.New("notification already resolved")
	// ErrConflict marks state-dependent mutations that no longer apply.
	ErrConflict = errors.New("conflict")
)
