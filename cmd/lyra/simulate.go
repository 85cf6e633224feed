package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/lyra/internal/classify"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [utterance]",
	Short: "Dry-run a plan and render it through --output",
	Long: `simulate is "lyra run --dry-run" with the formatted --output
report always shown for utterances that reach a plan. Dangerous tokens,
introspective queries, and clarification requests print their own
one-line message instead, since there is no plan to render for them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().Float64Var(&trustScore, "trust", 0.5, "Caller trust score (0.0-1.0); simulate is a dry run that never reaches the gateway, so the score does not change its output")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
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

	switch {
	case out.DangerousToken != "":
		fmt.Printf("dangerous token detected: %q\n", out.DangerousToken)
		return nil
	case out.Introspection != "":
		fmt.Println(out.Introspection)
		return nil
	case out.Clarification != nil:
		fmt.Println(out.Clarification.Prompt)
		return nil
	}

	return renderReport(reportFromDryRun(out))
}
