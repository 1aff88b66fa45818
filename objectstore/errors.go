package objectstore

import "errors"

var (
	// ErrListRetriesExhausted is returned when a prefix listing keeps
	// failing after the full retry budget.
	ErrListRetriesExhausted = errors.New("listing failed after retries")

	// ErrNoEndpoint is returned when the issued credentials carry no
	// storage endpoint.
	ErrNoEndpoint = errors.New("credentials carry no storage endpoint")
)
