// Package ingest resolves which backend book an OCR output folder belongs
// to, transfers its pages, lines, and characters, and hands off the
// downstream batch job.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/printprobability/ingest-book/cmd/load"
	"github.com/printprobability/ingest-book/internal/api"
	"github.com/printprobability/ingest-book/internal/config"
	"github.com/printprobability/ingest-book/internal/estc"
	"github.com/printprobability/ingest-book/internal/ledger"
	"github.com/printprobability/ingest-book/internal/metadata"
)

// Params carries one ingest invocation's inputs.
type Params struct {
	BookString string
	UUID       string
	Printer    string
	Update     bool
	JSONDir    string
	SkipJob    bool
}

// cachedCatalogue adapts the scraper's cached lookup to the metadata
// resolver's Catalogue interface.
type cachedCatalogue struct {
	client *estc.Client
}

func (c *cachedCatalogue) Lookup(ctx context.Context, estcNumber string) (*estc.Record, error) {
	return c.client.LookupCached(ctx, estcNumber)
}

// emptyVIDTable stands in when no cross-reference table is configured.
type emptyVIDTable struct{}

func (emptyVIDTable) VIDFor(string) string { return "" }

func loadVIDTable() (metadata.VIDTable, error) {
	if config.ESTCLookupCSV == "" {
		slog.Warn("No VID lookup table configured, EEBO metadata lookup disabled")
		return emptyVIDTable{}, nil
	}
	table, err := estc.LoadVIDLookup(config.ESTCLookupCSV)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// RunWithParams executes one full ingestion: resolve the target book,
// record its UUID in the pipeline worksheet, transfer the OCR output, and
// hand off the batch job. Resolution failures abort before any page,
// line, or character reaches the backend.
func RunWithParams(p Params) error {
	ctx := context.Background()

	client, err := api.NewClientFromConfig()
	if err != nil {
		return err
	}
	led := ledger.NewCSVLedger(config.PipelineCSV, config.PrintersCSV)

	vids, err := loadVIDTable()
	if err != nil {
		return err
	}
	catalogue := &cachedCatalogue{client: estc.NewClient(config.ESTCBaseURL, nil)}
	resolver := metadata.NewResolver(client, catalogue, vids)

	matcher := NewMatcher(client, resolver, led)
	target, err := matcher.ResolveTarget(ctx, p.BookString, p.UUID, p.Printer, p.Update)
	if err != nil {
		return err
	}

	if err := led.SetBookUUID(p.BookString, target.Book.ID); err != nil {
		return fmt.Errorf("failed to record UUID for %s in pipeline worksheet: %w", p.BookString, err)
	}

	jsonDir := p.JSONDir
	if jsonDir == "" {
		jsonDir = filepath.Join(config.JSONOutputDir, p.BookString+"_color")
	}

	if target.Update {
		slog.Info("Updating an existing run", "book", target.Book.ID)
	} else {
		slog.Info("Creating a new run", "book", target.Book.ID, "new_book", target.IsNew)
	}

	loader := load.NewLoader(client, config.TifRoot, config.TransferWorkers)
	if err := loader.Run(ctx, target.Book.ID, jsonDir, target.Update); err != nil {
		return err
	}

	fmt.Printf("This book is now available at %s/%s\n", config.BooksWebURL, target.Book.ID)

	if p.SkipJob {
		slog.Info("Skipping batch job handoff", "book", target.Book.ID)
		return nil
	}
	if config.BatchCommand == "" {
		slog.Info("No batch job command configured, nothing to hand off")
		return nil
	}
	return SubmitBatch(ctx, BatchCommand(target.Book.ID, jsonDir, target.Update))
}
