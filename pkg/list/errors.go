package list

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when two entries resolve to the same
	// reconciliation key in one pass
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidListItem is returned when an item factory does not produce
	// exactly one element
	ErrInvalidListItem = errors.New("invalid list item")

	// ErrNoContainer is returned when Reconcile is called without a container
	ErrNoContainer = errors.New("list container is nil")
)

// DuplicateKeyError reports a reconciliation key produced twice
type DuplicateKeyError struct {
	Key   string
	Index int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate list key %q at index %d", e.Key, e.Index)
}

// Unwrap returns ErrDuplicateKey
func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

// InvalidListItemError reports an item that does not resolve to a single
// element root
type InvalidListItemError struct {
	Key   string
	Index int
	Got   string
}

func (e *InvalidListItemError) Error() string {
	return fmt.Sprintf("each list item must contain only a single root element: item %q at index %d produced %s",
		e.Key, e.Index, e.Got)
}

// Unwrap returns ErrInvalidListItem
func (e *InvalidListItemError) Unwrap() error {
	return ErrInvalidListItem
}
