package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/phasebridge/internal/config"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "phasebridge",
		Short: "Deterministic oscillator lattice bridge",
		Long: `phasebridge evolves a deterministic 8-dimensional oscillator lattice,
detects harmonic consensus, and persists its history as weighted,
content-addressed checkpoints.

Dashboards and explorers consume the read-only status API; commitments
can be anchored through a configurable sink.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for machine consumption)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.phasebridge/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newDeriveCmd(),
		newSnapshotsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration for a command: the --config flag wins,
// otherwise the default locations and environment apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
