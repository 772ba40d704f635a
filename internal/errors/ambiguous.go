package errors

import (
	"errors"
	"fmt"
)

// AmbiguousTargetError signals that more than one locally-catalogued book
// matches a catalogue identifier. The tool never guesses between candidates;
// the operator must re-run with an explicit UUID.
type AmbiguousTargetError struct {
	ESTC       string
	Candidates []string // UUIDs of the competing books
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("multiple non-EEBO books match ESTC %s (candidates: %v), please specify a UUID", e.ESTC, e.Candidates)
}

// NewAmbiguousTargetError creates an AmbiguousTargetError for an ESTC number
// with the competing book UUIDs.
func NewAmbiguousTargetError(estc string, candidates []string) *AmbiguousTargetError {
	return &AmbiguousTargetError{ESTC: estc, Candidates: candidates}
}

// IsAmbiguousTargetError reports whether err is an AmbiguousTargetError (even when wrapped).
func IsAmbiguousTargetError(err error) bool {
	var ambErr *AmbiguousTargetError
	return errors.As(err, &ambErr)
}
