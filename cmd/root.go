package cmd

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/printprobability/ingest-book/cmd/ingest"
	"github.com/printprobability/ingest-book/cmd/load"
	"github.com/printprobability/ingest-book/internal/config"
)

var (
	runIngest = ingest.RunWithParams
	runLoad   = load.LoadWithParams
)

// CLI represents the complete command structure for the ingest-book application
type CLI struct {
	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	Ingest IngestCmd `cmd:"" help:"Resolve a book's backend identity and transfer its OCR output"`
	Load   LoadCmd   `cmd:"" help:"Transfer OCR JSON for an already-registered book"`
}

// IngestCmd represents the ingest command
type IngestCmd struct {
	BookString string `help:"Book string naming the OCR output folder (<printer>_<estc>_...)" required:""`
	UUID       string `help:"UUID of an existing backend book to target"`
	Printer    string `help:"Printer full name for newly created books (defaults to the printers worksheet)"`
	Update     bool   `short:"u" help:"Update an existing run instead of creating a new one"`
	JSONDir    string `help:"Directory holding pages.json/lines.json/chars.json (defaults under the configured JSON output root)"`
	SkipJob    bool   `help:"Skip the batch scheduler handoff after the transfer"`
}

// LoadCmd represents the load command
type LoadCmd struct {
	Book   string `short:"b" help:"UUID of the book to load into" required:""`
	JSON   string `short:"j" help:"Directory where the OCR JSON output is stored" required:""`
	Update bool   `short:"u" help:"Update existing records instead of creating"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	// Create CLI instance
	var cli CLI

	// Parse command line with Kong
	ctx := kong.Parse(&cli,
		kong.Name("ingest-book"),
		kong.Description("A tool to register OCR'd books with the print & probability backend and bulk-load their records."),
		kong.UsageOnError(),
	)

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	// Execute the selected command
	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Enable environment variable support
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	// Update cache config
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

// Run methods for each command

func (i *IngestCmd) Run() error {
	return runIngest(ingest.Params{
		BookString: i.BookString,
		UUID:       i.UUID,
		Printer:    i.Printer,
		Update:     i.Update,
		JSONDir:    i.JSONDir,
		SkipJob:    i.SkipJob,
	})
}

func (l *LoadCmd) Run() error {
	return runLoad(l.Book, l.JSON, l.Update)
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
