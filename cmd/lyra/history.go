package main

import (
	"github.com/spf13/cobra"

	"github.com/boshu2/lyra/internal/formatter"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent ledger entries",
	Long: `history renders the audit ledger's entries, most recent last,
through the same table/json/yaml formatter "lyra run" uses for a single
report. Use --limit to cap how many entries print (0 means all).`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	entries := a.Ledger.Entries()
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}

	reports := make([]formatter.Report, 0, len(entries))
	for _, e := range entries {
		reports = append(reports, reportFromLedgerEntry(e))
	}
	return renderReports(reports)
}
