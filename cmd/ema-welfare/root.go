package main

import (
	"fmt"
	"os"

	"github.com/koscakluka/ema-welfare/core/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

var logger = logging.NewLogger("github.com/koscakluka/ema-welfare/cmd/ema-welfare")

var (
	envFile   string
	debug     bool
	logFormat string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ema-welfare",
		Short:   "ema-welfare is a Telugu voice assistant for Telangana welfare schemes",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Options{Debug: debug, Format: logFormat})
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (defaults to .env when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "log format: console or json")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(consoleCmd())
	rootCmd.AddCommand(schemesCmd())
	rootCmd.AddCommand(mcpCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
