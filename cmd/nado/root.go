package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose     bool
	metricsAddr string
	cfgFile     string
	version     = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "nado [config]",
	Short: "Local differential tester for algorithmic solutions",
	Long: `nado synthesizes a deterministic corpus of structured inputs from a
problem's integer input constraints, runs an origin program and one or
more candidate programs against every case under resource isolation,
and reports every case where a candidate's normalized output diverges
from the origin's.

The single optional argument is the path to the TOML config file
(default ./nado.toml).`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDifferential,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the run is in progress")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the TOML config file (alternative to the positional argument)")

	// Subcommands are defined in separate files:
	// - execChildCmd in execchild_cmd.go, the hidden re-exec entrypoint
	//   used by pkg/sandbox when resource limits are enforced.
	rootCmd.AddCommand(execChildCmd)
}
