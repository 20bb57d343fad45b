package htag

import (
	"errors"
	"fmt"

	"github.com/recera/htag/pkg/list"
)

var (
	// ErrInvalidExpression is returned when an interpolated value has no
	// supported kind
	ErrInvalidExpression = errors.New("invalid template expression")

	// ErrUnresolvedMarker is returned when a tagged marker cannot be found
	// after parsing the markup
	ErrUnresolvedMarker = errors.New("unresolved template marker")

	// ErrDuplicateKey is returned when a directive key or a template member
	// name is already taken
	ErrDuplicateKey = list.ErrDuplicateKey

	// ErrInvalidListItem is returned when a list item does not render to a
	// single element
	ErrInvalidListItem = list.ErrInvalidListItem
)

// InvalidExpressionError reports the expression that could not be classified
type InvalidExpressionError struct {
	Index    int    // flattened expression index
	Position int    // argument position in the call
	Type     string // Go type of the value
	Template string // markup annotated with ${n} at each expression site
}

func (e *InvalidExpressionError) Error() string {
	return fmt.Sprintf("invalid template expression at index %d (%s):\n%s", e.Index, e.Type, e.Template)
}

// Unwrap returns ErrInvalidExpression
func (e *InvalidExpressionError) Unwrap() error {
	return ErrInvalidExpression
}

// UnresolvedMarkerError reports an expression whose marker did not survive
// HTML parsing
type UnresolvedMarkerError struct {
	Index    int
	Template string
}

func (e *UnresolvedMarkerError) Error() string {
	return fmt.Sprintf("unable to interpolate expression at index %d; "+
		"this could also have occurred because some prior expression was mismatched:\n%s",
		e.Index, e.Template)
}

// Unwrap returns ErrUnresolvedMarker
func (e *UnresolvedMarkerError) Unwrap() error {
	return ErrUnresolvedMarker
}

// DuplicateKeyError reports a name that is reserved or already in use
type DuplicateKeyError struct {
	Key      string
	Scope    string // what the key names: "directive", "template", "refs", ...
	Reserved bool
}

func (e *DuplicateKeyError) Error() string {
	if e.Reserved {
		return fmt.Sprintf("%s key %q is reserved", e.Scope, e.Key)
	}
	return fmt.Sprintf("duplicate %s key: %q", e.Scope, e.Key)
}

// Unwrap returns ErrDuplicateKey
func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}
