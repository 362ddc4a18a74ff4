package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/storekit/pkg/state"
	"github.com/vango-dev/storekit/pkg/store"
)

// Category represents the type of error.
type Category string

const (
	CategoryStore  Category = "store"
	CategoryState  Category = "state"
	CategoryConfig Category = "config"
	CategoryServer Category = "server"
	CategoryCLI    Category = "cli"
)

// Error is a structured error with a code, an explanation and a fix hint.
type Error struct {
	// Code is a unique error identifier (e.g., "S001").
	Code string

	// Category is the error type (store, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *Error) WithExample(ex string) *Error {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error with the given code.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// Classify maps store and state errors to their registered codes. Errors it
// does not recognize are wrapped as S999.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	var lerr *store.LookupError
	switch {
	case stderrors.As(err, &lerr) && lerr.Kind == store.KindSelector:
		return New("S002").Wrap(err).WithDetail(fmt.Sprintf("No selector named %q was registered.", lerr.Name))
	case stderrors.As(err, &lerr):
		return New("S001").Wrap(err).WithDetail(fmt.Sprintf("Key-path %q does not resolve in the current state.", lerr.Name))
	case stderrors.Is(err, store.ErrKeyNotFound):
		return New("S001").Wrap(err)
	case stderrors.Is(err, store.ErrSelectorNotFound):
		return New("S002").Wrap(err)
	case stderrors.Is(err, state.ErrEmptyPath), stderrors.Is(err, state.ErrNotMapping):
		return New("S003").Wrap(err)
	case stderrors.Is(err, store.ErrNilView):
		return New("S004").Wrap(err)
	default:
		return New("S999").Wrap(err)
	}
}
