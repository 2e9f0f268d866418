// Package cli implements the csvload command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "csvload",
	Short: "Batch-load folders of CSV files into PostgreSQL",
	Long: `csvload walks a mapping of folders to schemas and loads every CSV file it
finds into its own table, one chunk at a time.

Each file becomes a table named after the file (sales-2023.csv -> sales_2023),
created in the schema mapped to its folder. The first chunk replaces the table,
later chunks append to it. A failing file is reported and the run moves on.

Configuration is read from csvload.yaml in the working directory. Flags
override the file.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  15 - Run finished, but some files or folders failed`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// -h is the host flag, as in psql
	rootCmd.PersistentFlags().Bool("help", false, "Help for csvload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
