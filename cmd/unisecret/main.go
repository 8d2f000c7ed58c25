package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/unisecret/cmd/unisecret/commands"
	"github.com/systmms/unisecret/internal/config"
	uerrors "github.com/systmms/unisecret/internal/errors"
	"github.com/systmms/unisecret/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		var exitErr commands.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", uerrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "unisecret",
		Short: "Resolve secrets from environment, CI, platform bindings and vaults",
		Long: `unisecret resolves a secret name by asking each provider in a fixed
order (environment, CI context, platform bindings, external vault) and
prints the first value found.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: "+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewGetCommand(cfg),
		commands.NewExistsCommand(cfg),
		commands.NewStatsCommand(cfg),
		commands.NewProvidersCommand(cfg),
	)

	return rootCmd
}
