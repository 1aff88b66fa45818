package hoss

import "errors"

var (
	// ErrInvalidPrefix is returned when an operation expecting a folder
	// prefix receives a key without a trailing slash.
	ErrInvalidPrefix = errors.New("prefix must end with a forward slash")

	// ErrNotFound is returned when a referenced object does not exist.
	ErrNotFound = errors.New("object not found")
)
