package testutil

import (
	"testing"

	"github.com/printprobability/ingest-book/internal/config"
	"github.com/spf13/viper"
)

// ResetConfig resets viper and reinitializes the config package for a
// test, restoring both when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	config.InitConfig()

	t.Cleanup(func() {
		viper.Reset()
		config.InitConfig()
	})
}
