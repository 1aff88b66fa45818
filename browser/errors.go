package browser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocked is returned when an operation is initiated while another
	// folder operation, upload, or initial listing is outstanding.
	ErrLocked = errors.New("another operation is in progress")

	// ErrSearchActive is returned by mutating entry points while search
	// results are substituted for the live listing.
	ErrSearchActive = errors.New("not available while search results are shown")

	// ErrInvalidTarget is returned when a move's destination equals the
	// source or sits inside it.
	ErrInvalidTarget = errors.New("cannot move an item into itself")

	// ErrDuplicateFolder is returned when a new folder's name collides
	// with an existing sibling.
	ErrDuplicateFolder = errors.New("a folder with that name already exists")

	// ErrEmptyName is returned when a rename or new-folder name is blank.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrDateRange is returned when a search supplies exactly one modified
	// bound, or a before bound later than the after bound.
	ErrDateRange = errors.New("modified-before and modified-after must both be set, with before not later than after")

	// ErrNoSearchAPI is returned by Search when the browser was built
	// without a metadata-search collaborator.
	ErrNoSearchAPI = errors.New("no search API configured for this dataset")
)

// accessDeniedMessage replaces the storage backend's bare "Access Denied."
// so the user learns it is a permissions problem, not a transient fault.
const accessDeniedMessage = "You do not have permission to modify this dataset. " +
	"Ask the dataset owner for read-write access."

// OpError is a mutation failure carrying the attempted action's label. The
// underlying message is surfaced verbatim except the storage backend's
// literal "Access Denied.", which is rewritten.
type OpError struct {
	Action  string
	Message string
	err     error
}

func newOpError(action string, err error) *OpError {
	msg := err.Error()
	if strings.Contains(msg, "Access Denied.") {
		msg = accessDeniedMessage
	}
	return &OpError{Action: action, Message: msg, err: err}
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

func (e *OpError) Unwrap() error { return e.err }
