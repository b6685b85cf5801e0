// Package cmd implements the ecumap command line tool.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ecumap/internal/logging"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ecumap",
	Short: "Extract calibration maps from ECU firmware images",
	Long: `Read calibration maps (fuel, ignition, boost tables) out of raw ECU
firmware dumps using map definitions.

Examples:
  ecumap info stock.bin                                   # Size and fingerprint
  ecumap defs edc17.jsonc                                 # List a definition library
  ecumap extract stock.bin --defs edc17.jsonc --map Boost # Extract one map
  ecumap extract stock.bin --address 0x1C000 --columns 16 --rows 16 --factor 0.1`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is fine for the CLI.
		_ = godotenv.Load()
		level, format := logSettings(os.Getenv)
		logging.SetupWriter(cmd.ErrOrStderr(), level, format)
	},
}

// logSettings picks the log level and format from LOG_LEVEL and LOG_FORMAT,
// the same variables the server reads. The CLI defaults to warn so only
// problems reach stderr; --verbose forces debug.
func logSettings(getenv func(string) string) (level, format string) {
	level = getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	if verbose {
		level = "debug"
	}
	format = getenv("LOG_FORMAT")
	if format == "" {
		format = "text"
	}
	return level, format
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
