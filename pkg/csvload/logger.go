package csvload

// Logger provides a pluggable logging interface for csvload operations.
// Implementations must be safe for concurrent use by multiple goroutines.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs informational progress messages.
	Info(format string, args ...interface{})

	// Warn logs conditions that do not fail the run, such as a missing
	// folder or a folder without CSV files.
	Warn(format string, args ...interface{})

	// Error logs failures. A logged error never stops the run by itself;
	// callers decide what is fatal.
	Error(format string, args ...interface{})
}
