package errors

import (
	"errors"
	"fmt"
)

// RunNotFoundError signals that an update could not recover the character
// run its batch belongs to. Updating without the original run would
// fragment provenance, so this is fatal and never retried.
type RunNotFoundError struct {
	CharacterID string
	Detail      string
}

func (e *RunNotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("no character run discoverable via character %q: %s", e.CharacterID, e.Detail)
	}
	return fmt.Sprintf("no character run discoverable via character %q", e.CharacterID)
}

// NewRunNotFoundError creates a RunNotFoundError for the referenced character.
func NewRunNotFoundError(characterID, detail string) *RunNotFoundError {
	return &RunNotFoundError{CharacterID: characterID, Detail: detail}
}

// IsRunNotFoundError reports whether err is a RunNotFoundError (even when wrapped).
func IsRunNotFoundError(err error) bool {
	var runErr *RunNotFoundError
	return errors.As(err, &runErr)
}
