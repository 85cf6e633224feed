package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lastIntentCmd = &cobra.Command{
	Use:   "last-intent",
	Short: "Show the intent of the most recent ledger entry",
	Long: `last-intent reads the audit ledger's final entry and prints the
intent it classified, the risk level it carried, and how the gateway
resolved it. Session memory isn't persisted across processes, so the
ledger is the only durable place this can come from.`,
	RunE: runLastIntent,
}

func init() {
	rootCmd.AddCommand(lastIntentCmd)
}

func runLastIntent(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	entries := a.Ledger.Entries()
	if len(entries) == 0 {
		fmt.Println("ledger is empty: no commands have been governed yet")
		return nil
	}
	last := entries[len(entries)-1]
	fmt.Printf("intent:   %s\n", last.Intent)
	fmt.Printf("risk:     %s\n", last.RiskLevel)
	fmt.Printf("outcome:  %s\n", last.Outcome)
	if last.Reason != "" {
		fmt.Printf("reason:   %s\n", last.Reason)
	}
	return nil
}
