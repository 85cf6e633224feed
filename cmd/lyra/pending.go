package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Report whether a clarification is outstanding",
	Long: `pending exists as a one-shot introspection command, but a pending
clarification only lives inside the process that asked for it — the repl
loop. A fresh CLI invocation never has one, so this always reports that
no session is in progress; run "lyra repl" to hold a clarification open
across turns.`,
	RunE: runPending,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, args []string) error {
	fmt.Println("no pending clarification: each \"lyra run\" invocation is a fresh process with no carried state")
	fmt.Println("use \"lyra repl\" to hold a clarification open across turns")
	return nil
}
