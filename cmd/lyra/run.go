package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/lyra/internal/app"
	"github.com/boshu2/lyra/internal/classify"
)

var trustScore float64

var runCmd = &cobra.Command{
	Use:   "run [utterance]",
	Short: "Classify and govern one utterance",
	Long: `run threads a single utterance through normalization, the
classification cascade, planning, and the execution gateway.

With --dry-run, the plan is built and risk-simulated but never sent
through the gateway, so no audit entry is recorded and nothing executes.

Example:
  lyra run "delete notes.txt"
  lyra run --dry-run "download report.pdf from https://example.com/r.pdf"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Float64Var(&trustScore, "trust", app.DefaultTrustScore, "Caller trust score (0.0-1.0) presented to the gateway")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	utterance := strings.Join(args, " ")
	ctx := context.Background()

	out, err := a.Process(ctx, utterance, nil, classify.PriorTurn{}, trustScore, dryRun)
	if err != nil {
		return err
	}

	switch {
	case out.DangerousToken != "":
		fmt.Fprintf(os.Stderr, "refusing to auto-correct toward %q — please restate explicitly.\n", out.DangerousToken)
		return nil
	case out.Introspection != "":
		fmt.Println(out.Introspection)
		return nil
	case out.Clarification != nil:
		fmt.Println(out.Clarification.Prompt)
		return nil
	}

	verbosePrintf("intent=%s confidence=%.2f source=%s\n", out.Command.Intent, out.Command.Confidence, out.Command.DecisionSource)

	if dryRun {
		return renderReport(reportFromDryRun(out))
	}

	entries := a.Ledger.Entries()
	if len(entries) == 0 {
		return fmt.Errorf("gateway produced no audit entry")
	}
	return renderReport(reportFromLedgerEntry(entries[len(entries)-1]))
}
