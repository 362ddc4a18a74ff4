package store

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when a view watches a key that does not exist
// in state.
var ErrKeyNotFound = errors.New("store: key not found")

// ErrSelectorNotFound is returned when a view watches a selector that was not
// registered at construction.
var ErrSelectorNotFound = errors.New("store: selector not found")

// ErrNilView is returned when a Use call is given a nil view.
var ErrNilView = errors.New("store: nil view")

// LookupKind identifies what a LookupError failed to find.
type LookupKind string

const (
	KindKey      LookupKind = "key"
	KindSelector LookupKind = "selector"
)

// LookupError reports a watch key or selector name that cannot be resolved.
// It unwraps to ErrKeyNotFound or ErrSelectorNotFound.
type LookupError struct {
	Kind LookupKind
	Name string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("store: %s %q not found", e.Kind, e.Name)
}

// Unwrap returns the sentinel for errors.Is support.
func (e *LookupError) Unwrap() error {
	if e.Kind == KindSelector {
		return ErrSelectorNotFound
	}
	return ErrKeyNotFound
}
