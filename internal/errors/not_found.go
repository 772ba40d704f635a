package errors

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing backend entity (book, run) that the
// caller explicitly named. It is fatal: the operator supplied an identifier
// the backend does not know about.
type NotFoundError struct {
	Kind string // "book" or "run"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found for identifier %q", e.Kind, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given entity kind and identifier.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
