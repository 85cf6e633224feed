package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var goalTrustScore float64

var goalCmd = &cobra.Command{
	Use:   "goal [description]",
	Short: "Decompose and govern a multi-step goal through the advisor",
	Long: `goal hands a free-form multi-step request to the configured
advisor, which proposes an ordered list of known intents. Each step then
runs through the same capability check, trust check, and gateway every
single-intent command passes through — the advisor only names intents,
it never bypasses governance.

Requires advisor.api_key to be set (env LYRA_ADVISOR_API_KEY); "lyra run"
covers single-intent utterances without one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGoal,
}

func init() {
	goalCmd.Flags().Float64Var(&goalTrustScore, "trust", 0.5, "Caller trust score (0.0-1.0) applied to every step")
	rootCmd.AddCommand(goalCmd)
}

func runGoal(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()

	summary, err := a.RunGoal(context.Background(), strings.Join(args, " "), goalTrustScore)
	if err != nil {
		return err
	}

	fmt.Printf("status:         %s\n", summary.Status)
	fmt.Printf("steps executed: %d\n", summary.StepsExecuted)
	if summary.FailedStepIdx >= 0 {
		fmt.Printf("failed step:    %d\n", summary.FailedStepIdx)
	}
	for _, outcome := range summary.AuditLog {
		if outcome.Success {
			fmt.Printf("  - %s: ok\n", outcome.StepID)
		} else {
			fmt.Printf("  - %s: failed (%v)\n", outcome.StepID, outcome.Err)
		}
	}
	return nil
}
