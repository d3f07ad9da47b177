package catalog

import "errors"

// ErrNotFound covers both missing rows and rows hidden from the principal.
var ErrNotFound = errors.New("not found")

const (
	ErrCodeNotFound       = "not_found"
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInternal       = "internal"
)
