package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/lyra/internal/classify"
)

var explainCmd = &cobra.Command{
	Use:   "explain [utterance]",
	Short: "Classify and risk-simulate an utterance without governing it",
	Long: `explain runs the same normalization, classification, and planning
stages as "lyra run --dry-run", then prints every risk factor the
simulation surfaced — not just the rolled-up cumulative level. Nothing
reaches the gateway or the ledger.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().Float64Var(&trustScore, "trust", 0.5, "Caller trust score (0.0-1.0); explain is a dry run that never reaches the gateway, so the score does not change its output")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	utterance := strings.Join(args, " ")
	out, err := a.Process(context.Background(), utterance, nil, classify.PriorTurn{}, trustScore, true)
	if err != nil {
		return err
	}

	if out.DangerousToken != "" {
		fmt.Printf("dangerous token detected: %q — would require explicit clarification, not auto-correction\n", out.DangerousToken)
		return nil
	}
	if out.Introspection != "" {
		fmt.Printf("introspective query, bypasses classification: %s\n", out.Introspection)
		return nil
	}
	if out.Clarification != nil {
		fmt.Printf("would ask for clarification: %s\n", out.Clarification.Prompt)
		return nil
	}

	fmt.Printf("intent:       %s\n", out.Command.Intent)
	fmt.Printf("confidence:   %.2f\n", out.Command.Confidence)
	fmt.Printf("source:       %s\n", out.Command.DecisionSource)
	fmt.Printf("entities:     %v\n", out.Command.Entities)
	fmt.Printf("plan id:      %s\n", out.Frozen.PlanID())
	fmt.Printf("plan hash:    %s\n", out.Frozen.DeterministicHash())
	fmt.Printf("cumulative risk: %s\n", out.Risk.CumulativeRisk)
	if len(out.Risk.Factors) == 0 {
		fmt.Println("risk factors: none")
	} else {
		fmt.Println("risk factors:")
		for _, f := range out.Risk.Factors {
			fmt.Printf("  - [%s] %s\n", f.Severity, f.Message)
		}
	}
	fmt.Fprintf(os.Stderr, "(preview only — nothing executed, no audit entry recorded)\n")
	return nil
}
