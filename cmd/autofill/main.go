// Package main provides the autofill CLI: it logs in to the resume service,
// caches the resume, and fills job-application forms on saved, fetched or
// live pages.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logFormat  string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "autofill",
	Short:         "Resume Auto-Fill",
	Long:          "Resume Auto-Fill fills job-application forms from the resume stored on the resume service.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides AUTOFILL_LOG_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides AUTOFILL_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print raw command results as JSON")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
