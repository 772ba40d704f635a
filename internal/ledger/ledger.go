// Package ledger tracks human-assigned identifiers for the ingestion
// pipeline: which backend UUID a book string was assigned, and the full
// printer names behind the short names embedded in book strings. The
// authoritative ledger is a shared worksheet maintained by operators; this
// package works against its row-oriented export.
package ledger

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/printprobability/ingest-book/internal/errors"
)

// Worksheet column positions, matching the shared pipeline sheet layout.
const (
	pipelineBookStringCol = 6
	pipelineUUIDCol       = 18
	printerFullNameCol    = 0
	printerShortNameCol   = 1
)

// Ledger records resolved book identifiers and resolves printer names.
type Ledger interface {
	// BookUUID returns the UUID previously recorded for a book string, or
	// "" when none is recorded.
	BookUUID(bookString string) (string, error)
	// SetBookUUID records (or refreshes) the UUID for a book string.
	SetBookUUID(bookString, uuid string) error
	// PrinterFullName resolves a printer short name to its full name.
	PrinterFullName(shortName string) (string, error)
}

// CSVLedger is a Ledger over worksheet CSV exports on disk.
type CSVLedger struct {
	pipelinePath string
	printersPath string
}

// NewCSVLedger creates a ledger over the pipeline and printers worksheet
// exports.
func NewCSVLedger(pipelinePath, printersPath string) *CSVLedger {
	return &CSVLedger{
		pipelinePath: pipelinePath,
		printersPath: printersPath,
	}
}

func readRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger worksheet: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger worksheet %s: %w", path, err)
	}
	return rows, nil
}

// BookUUID scans the pipeline worksheet for the book string's row. A blank
// recorded value counts as absent.
func (l *CSVLedger) BookUUID(bookString string) (string, error) {
	rows, err := readRows(l.pipelinePath)
	if err != nil {
		return "", err
	}

	for _, row := range rows {
		if len(row) <= pipelineBookStringCol {
			continue
		}
		if row[pipelineBookStringCol] != bookString {
			continue
		}
		if len(row) <= pipelineUUIDCol {
			return "", nil
		}
		return strings.TrimSpace(row[pipelineUUIDCol]), nil
	}
	return "", nil
}

// SetBookUUID rewrites the pipeline worksheet with the UUID recorded in
// the book string's row. Missing rows are left alone: only operators add
// books to the pipeline sheet.
func (l *CSVLedger) SetBookUUID(bookString, uuid string) error {
	rows, err := readRows(l.pipelinePath)
	if err != nil {
		return err
	}

	updated := false
	for _, row := range rows {
		if len(row) <= pipelineBookStringCol || row[pipelineBookStringCol] != bookString {
			continue
		}
		if len(row) <= pipelineUUIDCol {
			return fmt.Errorf("pipeline worksheet row for %s has no UUID column", bookString)
		}
		row[pipelineUUIDCol] = uuid
		updated = true
		break
	}
	if !updated {
		slog.Warn("Book string not present in pipeline worksheet, leaving it alone", "book_string", bookString)
		return nil
	}

	tmp := l.pipelinePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to write ledger worksheet: %w", err)
	}
	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write ledger worksheet: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush ledger worksheet: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.pipelinePath)
}

// PrinterFullName scans the printers worksheet. An unknown short name is a
// NotFoundError: books must not be created with a bare short name.
func (l *CSVLedger) PrinterFullName(shortName string) (string, error) {
	rows, err := readRows(l.printersPath)
	if err != nil {
		return "", err
	}

	for _, row := range rows {
		if len(row) <= printerShortNameCol {
			continue
		}
		if row[printerShortNameCol] == shortName {
			full := strings.ReplaceAll(row[printerFullNameCol], `"`, "")
			return full, nil
		}
	}
	return "", errors.NewNotFoundError("printer", shortName)
}
