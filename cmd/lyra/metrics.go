package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/lyra/internal/watchdog"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show internal decision metrics and watchdog health",
	Long: `metrics prints the internal decision-pipeline counters (commands
classified, clarifications raised, decision-source breakdown, average
latency) alongside the watchdog's composite health verdict. Counters are
process-local: each "lyra" invocation starts from zero.`,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	fmt.Print(watchdog.FormatReport(a.Metrics.Snapshot()))
	fmt.Println()

	health, findings := a.Watchdog.Assess()
	fmt.Printf("\nWatchdog Health: %s\n", health)
	for _, f := range findings {
		fmt.Printf("  - [%s] %s: %s\n", f.Severity, f.Category, f.Message)
	}
	return nil
}
