// Package apperr defines the error kinds shared across the store and
// dispatch layers. Callers classify failures with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrBackend    = errors.New("backend failure")
)
