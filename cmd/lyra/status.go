package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger chain health and entry count",
	Long: `status opens the audit ledger, walks its hash chain, and reports
whether it verifies intact along with how many entries it holds and the
outcome of the most recent one.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	entries := a.Ledger.Entries()
	chainErr := a.Ledger.Validate()

	fmt.Printf("ledger:   %s\n", a.Config.Ledger.Path)
	fmt.Printf("entries:  %d\n", len(entries))
	if chainErr != nil {
		fmt.Printf("chain:    BROKEN (%v)\n", chainErr)
	} else {
		fmt.Println("chain:    intact")
	}
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		fmt.Printf("last:     intent=%s outcome=%s risk=%s\n", last.Intent, last.Outcome, last.RiskLevel)
	}

	health, findings := a.Watchdog.Assess()
	fmt.Printf("watchdog: %s (this process only — counters don't survive across invocations)\n", health)
	for _, f := range findings {
		fmt.Printf("  - [%s] %s: %s\n", f.Severity, f.Category, f.Message)
	}
	return nil
}
