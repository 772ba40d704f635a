// Package metadata determines the authoritative bibliographic attributes
// for a book, trying the backend's own records first (via the EEBO VID
// cross-reference) and falling back to scraping the public catalogue.
package metadata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/printprobability/ingest-book/internal/api"
	"github.com/printprobability/ingest-book/internal/estc"
)

// BookFinder is the slice of the API client the resolver needs.
type BookFinder interface {
	ListBooksByVID(ctx context.Context, vid string) ([]api.Book, error)
}

// Catalogue looks up a citation number on the public catalogue.
type Catalogue interface {
	Lookup(ctx context.Context, estcNumber string) (*estc.Record, error)
}

// VIDTable maps ESTC numbers to EEBO VIDs.
type VIDTable interface {
	VIDFor(estc string) string
}

// Resolver chains the metadata sources.
type Resolver struct {
	books     BookFinder
	catalogue Catalogue
	vids      VIDTable
}

// NewResolver creates a resolver over the given sources.
func NewResolver(books BookFinder, catalogue Catalogue, vids VIDTable) *Resolver {
	return &Resolver{books: books, catalogue: catalogue, vids: vids}
}

// FirstMatch selects the metadata record to use when several backend books
// share a VID. The first match wins; with multiple EEBO copies of the same
// work the metadata is interchangeable for our fields, but this is a
// documented policy, not a guarantee the first is the best match.
func FirstMatch(books []api.Book) *api.Book {
	if len(books) == 0 {
		return nil
	}
	return &books[0]
}

// Resolve determines bibliographic metadata for an ESTC number: backend
// records via the VID cross-reference first, catalogue scrape second.
func (r *Resolver) Resolve(ctx context.Context, estcNo string) (*api.Book, error) {
	if vid := r.vids.VIDFor(estcNo); vid != "" {
		books, err := r.books.ListBooksByVID(ctx, vid)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch metadata for VID %s: %w", vid, err)
		}
		if meta := FirstMatch(books); meta != nil {
			slog.Info("Using EEBO metadata", "estc", estcNo, "vid", vid, "source_book", meta.ID)
			if err := applyYearBounds(meta); err != nil {
				return nil, err
			}
			return meta, nil
		}
		slog.Info("No EEBO metadata for VID, falling back to catalogue", "estc", estcNo, "vid", vid)
	}

	record, err := r.catalogue.Lookup(ctx, estcNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalogue metadata for %s: %w", estcNo, err)
	}

	year, err := estc.YearFromImprint(record.PublisherInfo)
	if err != nil {
		return nil, err
	}
	slog.Info("Using year from catalogue imprint", "estc", estcNo, "year", year)

	dateEarly, dateLate, err := estc.YearBounds(year)
	if err != nil {
		return nil, err
	}

	return &api.Book{
		ESTC:           estcNo,
		PPPublisher:    record.PublisherInfo,
		PPAuthor:       record.Author,
		PQTitle:        record.Title,
		PQAuthor:       record.Author,
		PQYearVerbatim: api.Year(year),
		PQYearEarly:    api.Year(year),
		PQYearLate:     api.Year(year),
		TXYearEarly:    api.Year(year),
		TXYearLate:     api.Year(year),
		DateEarly:      dateEarly,
		DateLate:       dateLate,
	}, nil
}

// applyYearBounds fills date_early/date_late from the EEBO year fields.
func applyYearBounds(book *api.Book) error {
	if !book.PQYearEarly.IsZero() {
		early, _, err := estc.YearBounds(string(book.PQYearEarly))
		if err != nil {
			return fmt.Errorf("book %s: %w", book.ID, err)
		}
		book.DateEarly = early
	}
	if !book.PQYearLate.IsZero() {
		_, late, err := estc.YearBounds(string(book.PQYearLate))
		if err != nil {
			return fmt.Errorf("book %s: %w", book.ID, err)
		}
		book.DateLate = late
	}
	return nil
}

// CreatePayload scrubs a metadata record into a create request: identity
// and run bookkeeping stripped, file fields blanked, provenance forced to
// independently-catalogued, printer attached.
func CreatePayload(meta *api.Book, printer string) *api.Book {
	payload := *meta
	payload.ID = ""
	payload.AllRuns = nil
	payload.Zipfile = ""
	payload.PDF = ""
	payload.Starred = false
	payload.Ignored = false
	payload.IsEEBOBook = false
	payload.Prefix = ""
	payload.Repository = ""
	payload.PPPrinter = printer
	payload.ColloqPrinter = ""
	payload.PPNotes = ""
	return &payload
}
