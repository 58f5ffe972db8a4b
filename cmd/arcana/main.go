// Package main is the arcana command: it serves the HTTP API and runs the
// maintenance tasks that operate on the same storage.
package main

import (
	"fmt"
	"os"

	_ "time/tzdata"

	"github.com/phrazzld/arcana/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each subcommand loads configuration
// through the shared --config flag.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "arcana",
		Short:         "Tarot reading service with daily draws, spreads and progression",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a config file (defaults to ./config.yaml and ARCANA_* environment variables)")

	load := func() (*config.Config, error) {
		return loadConfig(configPath)
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newExportCmd(load),
		newImportCmd(load),
		newResetCmd(load),
	)
	return rootCmd
}

type configLoader func() (*config.Config, error)

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
