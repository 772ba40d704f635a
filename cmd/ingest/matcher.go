package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/printprobability/ingest-book/internal/api"
	"github.com/printprobability/ingest-book/internal/config"
	"github.com/printprobability/ingest-book/internal/errors"
	"github.com/printprobability/ingest-book/internal/ledger"
	"github.com/printprobability/ingest-book/internal/metadata"
)

// Backend is the slice of the API client the matcher needs.
type Backend interface {
	GetBook(ctx context.Context, id string) (*api.Book, error)
	ListBooksByESTC(ctx context.Context, estc string) ([]api.Book, error)
	CreateBook(ctx context.Context, book *api.Book) (*api.Book, error)
}

// MetadataSource resolves bibliographic metadata for an ESTC number.
type MetadataSource interface {
	Resolve(ctx context.Context, estcNo string) (*api.Book, error)
}

// Target is the outcome of identity resolution: which book the transfer
// goes to, whether it runs in update mode, and whether the book was
// created by this invocation.
type Target struct {
	Book   *api.Book
	Update bool
	IsNew  bool
}

// Matcher decides which backend book an ingestion targets.
type Matcher struct {
	backend  Backend
	metadata MetadataSource
	ledger   ledger.Ledger
}

// NewMatcher creates a matcher over the given collaborators.
func NewMatcher(backend Backend, metadata MetadataSource, led ledger.Ledger) *Matcher {
	return &Matcher{backend: backend, metadata: metadata, ledger: led}
}

// splitBookString breaks a book string of the form
// <printerShort>_<estcNo>_... into its identifier parts.
func splitBookString(bookString string) (printerShort, estcNo string, err error) {
	parts := strings.Split(bookString, "_")
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("book string %q carries no ESTC number (expected <printer>_<estc>_...)", bookString)
	}
	return parts[0], parts[1], nil
}

// ResolveTarget applies the identity decision procedure: an explicit UUID
// wins, then a UUID recorded in the pipeline worksheet, then the backend's
// non-EEBO books for the ESTC number (more than one is ambiguous and
// fatal), and finally a brand-new book built from resolved metadata. A
// target with no prior pages, lines, or characters always forces create
// mode, there being nothing to update yet.
func (m *Matcher) ResolveTarget(ctx context.Context, bookString, explicitUUID, printerOverride string, update bool) (*Target, error) {
	printerShort, estcNo, err := splitBookString(bookString)
	if err != nil {
		return nil, err
	}
	slog.Info("Resolving ingestion target", "book_string", bookString, "estc", estcNo)

	target := explicitUUID
	if target == "" {
		recorded, err := m.ledger.BookUUID(bookString)
		if err != nil {
			return nil, err
		}
		if recorded != "" {
			slog.Info("Using UUID recorded in pipeline worksheet", "book_string", bookString, "uuid", recorded)
			target = recorded
		}
	}

	if target != "" {
		if _, err := uuid.Parse(target); err != nil {
			return nil, fmt.Errorf("%q is not a valid book UUID: %w", target, err)
		}
		book, err := m.backend.GetBook(ctx, target)
		if err != nil {
			return nil, err
		}
		return existingTarget(book, update), nil
	}

	if config.IsMultiBookESTC(estcNo) {
		slog.Info("ESTC number is allow-listed for multiple books, creating a new one", "estc", estcNo)
	} else {
		books, err := m.backend.ListBooksByESTC(ctx, estcNo)
		if err != nil {
			return nil, err
		}
		var candidates []api.Book
		for _, book := range books {
			if !book.IsEEBOBook {
				candidates = append(candidates, book)
			}
		}
		if len(candidates) > 1 {
			ids := make([]string, 0, len(candidates))
			for _, book := range candidates {
				ids = append(ids, book.ID)
			}
			return nil, errors.NewAmbiguousTargetError(estcNo, ids)
		}
		if len(candidates) == 1 {
			slog.Info("Found non-EEBO target book", "book", candidates[0].ID, "estc", estcNo)
			return existingTarget(&candidates[0], update), nil
		}
	}

	return m.createTarget(ctx, estcNo, printerShort, printerOverride)
}

func existingTarget(book *api.Book, update bool) *Target {
	if book.HasNoRecords() {
		if update {
			slog.Info("Existing book has no runs yet, forcing create mode", "book", book.ID)
		}
		update = false
	}
	return &Target{Book: book, Update: update}
}

func (m *Matcher) createTarget(ctx context.Context, estcNo, printerShort, printerOverride string) (*Target, error) {
	meta, err := m.metadata.Resolve(ctx, estcNo)
	if err != nil {
		return nil, err
	}

	printer := printerOverride
	if printer == "" {
		printer, err = m.ledger.PrinterFullName(printerShort)
		if err != nil {
			return nil, err
		}
	}

	created, err := m.backend.CreateBook(ctx, metadata.CreatePayload(meta, printer))
	if err != nil {
		return nil, fmt.Errorf("failed to create book for ESTC %s: %w", estcNo, err)
	}
	slog.Info("Book created", "book", created.ID, "estc", estcNo, "printer", printer)
	return &Target{Book: created, IsNew: true}, nil
}
