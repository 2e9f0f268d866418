package csvload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Run completed without file or folder errors
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitRunIncomplete   = 15 // Run finished, but some files or folders failed
)

const (
	// DefaultChunkSize is the number of rows read and persisted per chunk.
	DefaultChunkSize = 10000

	// DefaultEncoding is the text encoding assumed for source files.
	DefaultEncoding = "utf-8"

	// DefaultConfigFile is the project configuration file looked up in the
	// working directory.
	DefaultConfigFile = "csvload.yaml"

	// DefaultAppName is reported to PostgreSQL as application_name.
	DefaultAppName = "csvload"

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultConnectRetries is the number of connect retries. Zero keeps the
	// fail-fast behaviour: a failed connection ends the run.
	DefaultConnectRetries = 0

	// MaxIdentifierLength is the longest table or column name PostgreSQL
	// keeps (NAMEDATALEN - 1). Longer names are truncated by the server.
	MaxIdentifierLength = 63

	// MaxErrorPreviewLength is the maximum number of characters of a cell
	// value quoted in coercion errors.
	MaxErrorPreviewLength = 200
)

// CSV file suffixes recognised by the folder walker. Compressed variants are
// decompressed transparently.
const (
	ExtCSV     = ".csv"
	ExtCSVGzip = ".csv.gz"
	ExtCSVZstd = ".csv.zst"
)

// SupportedExtensions lists the recognised suffixes, longest first.
var SupportedExtensions = []string{ExtCSVGzip, ExtCSVZstd, ExtCSV}
