package transfer

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/printprobability/ingest-book/internal/api"
	"github.com/printprobability/ingest-book/internal/errors"
)

// ChunkOutcome records the result of one chunk submission.
type ChunkOutcome struct {
	Index int
	Size  int
	Ack   json.RawMessage
	Err   error
}

// Result aggregates the per-chunk outcomes of one logical transfer. The
// transfer is not transactional: a Result can hold both successes and
// failures, and the successes stay applied remotely.
type Result struct {
	Endpoint  string
	Succeeded []ChunkOutcome
	Failed    []ChunkOutcome
}

// Err returns nil when every chunk succeeded, otherwise a
// PartialTransferError naming the failed chunk indexes.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	failed := make([]int, 0, len(r.Failed))
	for _, outcome := range r.Failed {
		failed = append(failed, outcome.Index)
	}
	return errors.NewPartialTransferError(r.Endpoint, failed, len(r.Succeeded)+len(r.Failed))
}

// SubmitFunc submits one character chunk and returns the backend's
// acknowledgment.
type SubmitFunc func(ctx context.Context, chunk []api.CharacterRecord) (json.RawMessage, error)

// Engine fans character chunks out to a bounded worker pool. Pages and
// lines go through WholeBatch instead; only characters are chunked.
type Engine struct {
	Workers int
}

// NewEngine creates an engine with the given worker pool size.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 20
	}
	return &Engine{Workers: workers}
}

// TransferChunked splits records into chunks and submits them concurrently
// under the worker pool. It blocks until every chunk has settled: a failed
// chunk never cancels in-flight ones, each runs to completion
// independently. Failures are captured per chunk, not propagated early.
func (e *Engine) TransferChunked(ctx context.Context, endpoint string, records []api.CharacterRecord, submit SubmitFunc) *Result {
	chunks := Split(records, e.Workers)
	slog.Info("Dispatching chunked transfer",
		"endpoint", endpoint,
		"records", len(records),
		"chunks", len(chunks),
		"workers", e.Workers)

	outcomes := make([]ChunkOutcome, len(chunks))

	var g errgroup.Group
	g.SetLimit(e.Workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			ack, err := submit(ctx, chunk)
			outcomes[i] = ChunkOutcome{Index: i, Size: len(chunk), Ack: ack, Err: err}
			if err != nil {
				slog.Error("Chunk transfer failed", "endpoint", endpoint, "chunk", i, "size", len(chunk), "error", err)
			} else {
				slog.Info("Chunk transferred", "endpoint", endpoint, "chunk", i, "size", len(chunk))
			}
			return nil
		})
	}
	// Tasks never return errors; Wait is purely a join.
	_ = g.Wait()

	result := &Result{Endpoint: endpoint}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.Failed = append(result.Failed, outcome)
		} else {
			result.Succeeded = append(result.Succeeded, outcome)
		}
	}
	return result
}

// WholeBatch runs a single-request transfer (pages, lines) under the same
// outcome contract as the chunked path.
func WholeBatch(ctx context.Context, endpoint string, size int, submit func(ctx context.Context) (json.RawMessage, error)) *Result {
	result := &Result{Endpoint: endpoint}
	ack, err := submit(ctx)
	outcome := ChunkOutcome{Index: 0, Size: size, Ack: ack, Err: err}
	if err != nil {
		slog.Error("Batch transfer failed", "endpoint", endpoint, "size", size, "error", err)
		result.Failed = append(result.Failed, outcome)
	} else {
		slog.Info("Batch transferred", "endpoint", endpoint, "size", size)
		result.Succeeded = append(result.Succeeded, outcome)
	}
	return result
}
