package errors

import (
	"errors"
	"fmt"
)

// PartialTransferError reports that one or more chunks of a bulk transfer
// failed while the rest were applied. The transfer is not transactional:
// succeeded chunks stay applied, and the failed indexes must be surfaced so
// the operator can repair with an update-mode re-run.
type PartialTransferError struct {
	Endpoint     string
	FailedChunks []int
	Total        int
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("%d of %d chunks failed transferring to %s (failed chunk indexes: %v)",
		len(e.FailedChunks), e.Total, e.Endpoint, e.FailedChunks)
}

// NewPartialTransferError creates a PartialTransferError for the given
// endpoint with the indexes of the chunks that failed.
func NewPartialTransferError(endpoint string, failed []int, total int) *PartialTransferError {
	return &PartialTransferError{Endpoint: endpoint, FailedChunks: failed, Total: total}
}

// IsPartialTransferError reports whether err is a PartialTransferError (even when wrapped).
func IsPartialTransferError(err error) bool {
	var partialErr *PartialTransferError
	return errors.As(err, &partialErr)
}
