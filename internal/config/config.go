package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// APIBaseURL is the root of the print & probability REST API
	APIBaseURL string
	// BooksWebURL is the human-facing book viewer root, used in final status output
	BooksWebURL string
	// TokenFile is the path to the API bearer token file
	TokenFile string
	// CertFile is the CA bundle used to verify the API's TLS certificate
	CertFile string
	// ESTCBaseURL is the public catalogue root used for metadata scraping
	ESTCBaseURL string
	// ESTCLookupCSV is the ESTC number to VID cross-reference table
	ESTCLookupCSV string
	// PipelineCSV is the ledger worksheet recording book string to UUID assignments
	PipelineCSV string
	// PrintersCSV is the ledger worksheet mapping printer short names to full names
	PrintersCSV string
	// JSONOutputDir is the root directory holding per-book OCR JSON output folders
	JSONOutputDir string
	// TransferWorkers is the worker pool size for chunked character transfer
	TransferWorkers int
	// TifRoot is the shared filesystem root the backend resolves page TIFF paths against
	TifRoot string
	// BatchPrefix is the scheduler invocation carrying the resource requirements
	BatchPrefix string
	// BatchSetup is the environment setup prepended inside the scheduler wrap
	BatchSetup string
	// BatchCommand is the downstream processing command handed off once
	// ingestion data is ready; empty disables the handoff
	BatchCommand string
	// MultiBookESTCs lists catalogue identifiers that legitimately map to
	// several books, exempting them from the ambiguity check
	MultiBookESTCs []string
)

// InitConfig initializes the global configuration
func InitConfig() {
	viper.SetDefault("api.url", "https://printprobdb.psc.edu/api")
	viper.SetDefault("api.books_url", "https://printprobdb.psc.edu/books")
	viper.SetDefault("estc.url", "http://estc.bl.uk")
	viper.SetDefault("transfer.workers", 20)
	viper.SetDefault("transfer.tif_root", "/ocean/projects/hum160002p/shared")
	viper.SetDefault("ingest.multi_book_estcs", []string{"S111228"})
	viper.SetDefault("batch.prefix",
		`sbatch --dependency=singleton --job-name=IngestBookJob -c 10 --mem-per-cpu=1999mb -p "RM-shared" -t 48:00:00`)

	APIBaseURL = viper.GetString("api.url")
	BooksWebURL = viper.GetString("api.books_url")
	TokenFile = viper.GetString("api.token_file")
	CertFile = viper.GetString("api.cert_file")
	ESTCBaseURL = viper.GetString("estc.url")
	ESTCLookupCSV = viper.GetString("estc.lookup_csv")
	PipelineCSV = viper.GetString("ledger.pipeline_csv")
	PrintersCSV = viper.GetString("ledger.printers_csv")
	JSONOutputDir = viper.GetString("ingest.json_output_dir")
	TransferWorkers = viper.GetInt("transfer.workers")
	TifRoot = viper.GetString("transfer.tif_root")
	MultiBookESTCs = viper.GetStringSlice("ingest.multi_book_estcs")
	BatchPrefix = viper.GetString("batch.prefix")
	BatchSetup = viper.GetString("batch.setup")
	BatchCommand = viper.GetString("batch.command")
}

// IsMultiBookESTC reports whether the catalogue identifier is allow-listed
// as legitimately having multiple associated books.
func IsMultiBookESTC(estc string) bool {
	for _, allowed := range MultiBookESTCs {
		if allowed == estc {
			return true
		}
	}
	return false
}
