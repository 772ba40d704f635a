package errors

import (
	"errors"
	"fmt"
)

// MetadataExtractionError signals that a required bibliographic field could
// not be derived from catalogue free text. Downstream date fields are
// mandatory, so this cannot be defaulted silently.
type MetadataExtractionError struct {
	Field  string
	Source string // the free text the extraction ran against
}

func (e *MetadataExtractionError) Error() string {
	return fmt.Sprintf("cannot extract %s from catalogue value %q", e.Field, e.Source)
}

// NewMetadataExtractionError creates a MetadataExtractionError for the named field.
func NewMetadataExtractionError(field, source string) *MetadataExtractionError {
	return &MetadataExtractionError{Field: field, Source: source}
}

// IsMetadataExtractionError reports whether err is a MetadataExtractionError (even when wrapped).
func IsMetadataExtractionError(err error) bool {
	var metaErr *MetadataExtractionError
	return errors.As(err, &metaErr)
}
