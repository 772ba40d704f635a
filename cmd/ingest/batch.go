package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/printprobability/ingest-book/internal/config"
)

// BatchCommand builds the scheduler submission for the downstream
// processing job: the configured resource-requirement prefix wrapping the
// configured command plus the update flag, book UUID, and data directory.
func BatchCommand(bookUUID, jsonDir string, update bool) string {
	command := config.BatchCommand
	if config.BatchSetup != "" {
		command = config.BatchSetup + "; " + command
	}
	updateFlag := ""
	if update {
		updateFlag = " -u"
	}
	return fmt.Sprintf(`%s --wrap="%s%s -b %s -j %s"`,
		config.BatchPrefix, command, updateFlag, bookUUID, jsonDir)
}

// SubmitBatch hands the command to the scheduler through a shell. Job
// completion is not monitored.
func SubmitBatch(ctx context.Context, command string) error {
	slog.Info("Submitting batch job", "command", command)

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("batch job submission failed: %w", err)
	}
	slog.Info("Batch job launched")
	return nil
}
