package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/printprobability/ingest-book/internal/api"
	ingesterrors "github.com/printprobability/ingest-book/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func characterBatch(n int) []api.CharacterRecord {
	records := make([]api.CharacterRecord, n)
	for i := range records {
		records[i] = api.CharacterRecord{"id": fmt.Sprintf("c%d", i)}
	}
	return records
}

func TestTransferChunkedAllSucceed(t *testing.T) {
	engine := NewEngine(5)

	var mu sync.Mutex
	var submitted int

	result := engine.TransferChunked(context.Background(), "bulk_characters", characterBatch(25),
		func(ctx context.Context, chunk []api.CharacterRecord) (json.RawMessage, error) {
			mu.Lock()
			submitted += len(chunk)
			mu.Unlock()
			return json.RawMessage(`{"ok":true}`), nil
		})

	require.NoError(t, result.Err())
	assert.Len(t, result.Succeeded, 5)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 25, submitted)
}

func TestTransferChunkedPartialFailure(t *testing.T) {
	engine := NewEngine(5)

	// 5 chunks of 2; the chunk containing c4 (chunk index 2) fails.
	var mu sync.Mutex
	applied := map[string]bool{}

	result := engine.TransferChunked(context.Background(), "bulk_characters", characterBatch(10),
		func(ctx context.Context, chunk []api.CharacterRecord) (json.RawMessage, error) {
			for _, char := range chunk {
				if char.ID() == "c4" {
					return nil, fmt.Errorf("backend rejected chunk")
				}
			}
			mu.Lock()
			for _, char := range chunk {
				applied[char.ID()] = true
			}
			mu.Unlock()
			return json.RawMessage(`{}`), nil
		})

	assert.Len(t, result.Succeeded, 4)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 2, result.Failed[0].Index)
	assert.EqualError(t, result.Failed[0].Err, "backend rejected chunk")

	// The other chunks' effects are visible, not rolled back.
	assert.Len(t, applied, 8)
	assert.False(t, applied["c4"])
	assert.False(t, applied["c5"])

	err := result.Err()
	require.Error(t, err)
	assert.True(t, ingesterrors.IsPartialTransferError(err))
	assert.Contains(t, err.Error(), "1 of 5 chunks failed")
	assert.Contains(t, err.Error(), "[2]")
}

func TestTransferChunkedFailureDoesNotCancelOthers(t *testing.T) {
	engine := NewEngine(10)

	var mu sync.Mutex
	var completed int

	result := engine.TransferChunked(context.Background(), "bulk_characters", characterBatch(10),
		func(ctx context.Context, chunk []api.CharacterRecord) (json.RawMessage, error) {
			mu.Lock()
			completed++
			mu.Unlock()
			if chunk[0].ID() == "c0" {
				return nil, fmt.Errorf("first chunk fails")
			}
			return json.RawMessage(`{}`), nil
		})

	// Every chunk ran to completion despite the early failure.
	assert.Equal(t, 10, completed)
	assert.Len(t, result.Succeeded, 9)
	assert.Len(t, result.Failed, 1)
}

func TestTransferChunkedEmptyInput(t *testing.T) {
	engine := NewEngine(20)

	result := engine.TransferChunked(context.Background(), "bulk_characters", nil,
		func(ctx context.Context, chunk []api.CharacterRecord) (json.RawMessage, error) {
			t.Fatal("submit must not be called for empty input")
			return nil, nil
		})

	require.NoError(t, result.Err())
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, result.Failed)
}

func TestTransferChunkedPreservesInChunkOrder(t *testing.T) {
	engine := NewEngine(4)

	var mu sync.Mutex
	chunksSeen := map[int][]string{}

	engine.TransferChunked(context.Background(), "bulk_characters", characterBatch(12),
		func(ctx context.Context, chunk []api.CharacterRecord) (json.RawMessage, error) {
			ids := make([]string, len(chunk))
			for i, char := range chunk {
				ids[i] = char.ID()
			}
			mu.Lock()
			chunksSeen[len(chunksSeen)] = ids
			mu.Unlock()
			return json.RawMessage(`{}`), nil
		})

	// 12 records over 4 workers: chunks of 3, each in input order.
	for _, ids := range chunksSeen {
		require.Len(t, ids, 3)
		first := -1
		for i, id := range ids {
			var n int
			_, err := fmt.Sscanf(id, "c%d", &n)
			require.NoError(t, err)
			if i == 0 {
				first = n
			} else {
				assert.Equal(t, first+i, n)
			}
		}
	}
}

func TestWholeBatch(t *testing.T) {
	ok := WholeBatch(context.Background(), "bulk_pages", 42,
		func(ctx context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"pages":42}`), nil
		})
	require.NoError(t, ok.Err())
	require.Len(t, ok.Succeeded, 1)
	assert.Equal(t, 42, ok.Succeeded[0].Size)

	bad := WholeBatch(context.Background(), "bulk_lines", 7,
		func(ctx context.Context) (json.RawMessage, error) {
			return nil, fmt.Errorf("boom")
		})
	err := bad.Err()
	require.Error(t, err)
	assert.True(t, ingesterrors.IsPartialTransferError(err))
	assert.Contains(t, err.Error(), "bulk_lines")
}
