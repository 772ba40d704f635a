package load

import (
	"context"

	"github.com/printprobability/ingest-book/internal/api"
	"github.com/printprobability/ingest-book/internal/config"
)

// LoadWithParams transfers the OCR JSON in jsonDir into an
// already-registered book. This is the transfer-only entry point used by
// scheduled batch jobs; identity resolution happens in the ingest command.
func LoadWithParams(bookID, jsonDir string, update bool) error {
	client, err := api.NewClientFromConfig()
	if err != nil {
		return err
	}

	loader := NewLoader(client, config.TifRoot, config.TransferWorkers)
	return loader.Run(context.Background(), bookID, jsonDir, update)
}
