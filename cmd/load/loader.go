// Package load transfers a book's OCR JSON output (pages, lines,
// characters) into the backend, as a first-time bulk creation or an
// update of a prior run.
package load

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/printprobability/ingest-book/internal/api"
	"github.com/printprobability/ingest-book/internal/charclass"
	"github.com/printprobability/ingest-book/internal/errors"
	"github.com/printprobability/ingest-book/internal/transfer"
)

// Backend is the slice of the API client the loader needs.
type Backend interface {
	GetBook(ctx context.Context, id string) (*api.Book, error)
	ListCharacterClasses(ctx context.Context) ([]api.CharacterClass, error)
	CreateCharacterClass(ctx context.Context, code string) (*api.CharacterClass, error)
	CreateCharacterRun(ctx context.Context, bookID string) (*api.Run, error)
	GetCharacterRun(ctx context.Context, characterID string) (*api.Run, error)
	BulkPages(ctx context.Context, bookID string, pages []api.PageRecord, tifRoot string, update bool) (json.RawMessage, error)
	BulkLines(ctx context.Context, bookID string, lines []api.LineRecord, update bool) (json.RawMessage, error)
	BulkCharacters(ctx context.Context, bookID string, characters []api.CharacterRecord, runID string, update bool) (json.RawMessage, error)
}

// Batch holds one book's OCR output read from disk.
type Batch struct {
	Pages      []api.PageRecord
	Lines      []api.LineRecord
	Characters []api.CharacterRecord
}

// ReadBatch loads pages.json, lines.json, and chars.json from dir. Every
// page is stamped with the recto/verso side marker the backend requires.
func ReadBatch(dir string) (*Batch, error) {
	batch := &Batch{}

	var pages struct {
		Pages []api.PageRecord `json:"pages"`
	}
	if err := readJSON(filepath.Join(dir, "pages.json"), &pages); err != nil {
		return nil, err
	}
	batch.Pages = pages.Pages
	for _, page := range batch.Pages {
		page["side"] = "s"
	}
	slog.Info("Pages loaded", "count", len(batch.Pages))

	var lines struct {
		Lines []api.LineRecord `json:"lines"`
	}
	if err := readJSON(filepath.Join(dir, "lines.json"), &lines); err != nil {
		return nil, err
	}
	batch.Lines = lines.Lines
	slog.Info("Lines loaded", "count", len(batch.Lines))

	var chars struct {
		Chars []api.CharacterRecord `json:"chars"`
	}
	if err := readJSON(filepath.Join(dir, "chars.json"), &chars); err != nil {
		return nil, err
	}
	batch.Characters = chars.Chars
	slog.Info("Characters loaded", "count", len(batch.Characters))

	return batch, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read OCR output: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse OCR output %s: %w", path, err)
	}
	return nil
}

// Loader runs the transfer sequence for one book: pages and lines as
// whole batches, then characters chunked under the worker pool.
type Loader struct {
	backend Backend
	engine  *transfer.Engine
	tifRoot string
}

// NewLoader creates a loader over the given backend.
func NewLoader(backend Backend, tifRoot string, workers int) *Loader {
	return &Loader{
		backend: backend,
		engine:  transfer.NewEngine(workers),
		tifRoot: tifRoot,
	}
}

// Run verifies the book exists, reads its OCR output from jsonDir,
// normalizes character classes, and transfers everything.
func (l *Loader) Run(ctx context.Context, bookID, jsonDir string, update bool) error {
	book, err := l.backend.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	batch, err := ReadBatch(jsonDir)
	if err != nil {
		return err
	}

	classes := charclass.New(l.backend)
	if err := classes.Load(ctx); err != nil {
		return err
	}
	if err := classes.NormalizeAll(ctx, batch.Characters); err != nil {
		return err
	}

	return l.Transfer(ctx, book.ID, batch, update)
}

// Transfer moves one batch into the backend. Pages and lines are
// sequential whole-batch requests and any failure there aborts before the
// character fan-out; character chunk failures are aggregated into a
// PartialTransferError instead.
func (l *Loader) Transfer(ctx context.Context, bookID string, batch *Batch, update bool) error {
	pages := transfer.WholeBatch(ctx, "bulk_pages", len(batch.Pages), func(ctx context.Context) (json.RawMessage, error) {
		return l.backend.BulkPages(ctx, bookID, batch.Pages, l.tifRoot, update)
	})
	if err := pages.Err(); err != nil {
		return err
	}

	lines := transfer.WholeBatch(ctx, "bulk_lines", len(batch.Lines), func(ctx context.Context) (json.RawMessage, error) {
		return l.backend.BulkLines(ctx, bookID, batch.Lines, update)
	})
	if err := lines.Err(); err != nil {
		return err
	}

	if len(batch.Characters) == 0 {
		slog.Info("No characters in batch, skipping character transfer", "book", bookID)
		return nil
	}

	runID, err := l.runID(ctx, bookID, batch.Characters, update)
	if err != nil {
		return err
	}

	result := l.engine.TransferChunked(ctx, "bulk_characters", batch.Characters, func(ctx context.Context, chunk []api.CharacterRecord) (json.RawMessage, error) {
		return l.backend.BulkCharacters(ctx, bookID, chunk, runID, update)
	})
	return result.Err()
}

// runID establishes the run the character batch belongs to: a fresh run
// for creation, the first character's recorded run for updates. An update
// batch spanning several runs is rejected rather than silently mixed.
func (l *Loader) runID(ctx context.Context, bookID string, characters []api.CharacterRecord, update bool) (string, error) {
	if !update {
		run, err := l.backend.CreateCharacterRun(ctx, bookID)
		if err != nil {
			return "", err
		}
		slog.Info("Character run created", "run", run.ID, "book", bookID)
		return run.ID, nil
	}

	first := characters[0].ID()
	if first == "" {
		return "", errors.NewRunNotFoundError("", "first character in update batch has no id")
	}
	run, err := l.backend.GetCharacterRun(ctx, first)
	if err != nil {
		return "", err
	}
	for _, char := range characters {
		if recorded, ok := char["character_run"].(string); ok && recorded != "" && recorded != run.ID {
			return "", errors.NewRunNotFoundError(char.ID(),
				fmt.Sprintf("update batch mixes runs %s and %s", run.ID, recorded))
		}
	}
	slog.Info("Recovered character run for update", "run", run.ID, "book", bookID)
	return run.ID, nil
}
