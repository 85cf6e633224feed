package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/lyra/internal/app"
	"github.com/boshu2/lyra/internal/config"
)

var (
	// Persistent flags, grounded on cmd/ao/root.go.
	dryRun  bool
	verbose bool
	output  string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lyra",
	Short: "Command governance pipeline for a natural-language assistant",
	Long: `lyra turns a free-form utterance into a validated, risk-classified,
policy-gated, auditable execution plan before anything runs.

Get Started:
  run          Classify and (unless --dry-run) execute one utterance
  repl         Interactive loop over the same pipeline

Inspection:
  status       Ledger chain health and entry count
  pending      Outstanding clarification, if any
  last-intent  Most recently audited intent
  explain      Classify an utterance and show every risk factor found
  history      List audited entries
  logs         Tail the structured log file
  metrics      Internal decision metrics and watchdog health
  simulate     Dry-run a plan without executing it
  goal         Decompose and govern a multi-step goal through the advisor`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, markdown)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file read in place of the project config .lyra/config.yaml (~/.lyra/config.yaml is still read)")
}

// verbosePrintf prints only when verbose mode is enabled.
func verbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// loadConfig resolves the merged configuration for this invocation,
// applying the --config override the way config.projectConfigPath's
// LYRA_CONFIG env var does.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		if err := os.Setenv("LYRA_CONFIG", cfgFile); err != nil {
			return nil, err
		}
	}
	overrides := &config.Config{Output: output, Verbose: verbose}
	return config.Load(overrides)
}

// newApp loads configuration and constructs a wired App for one invocation.
// Callers should defer a.Log.Sync() once the returned App is no longer needed.
func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}
