package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/lyra/internal/classify"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive loop over the governance pipeline",
	Long: `repl reads utterances from stdin, one per line, and runs each
through the same pipeline as "lyra run" — but keeps session memory and any
outstanding clarification alive across turns, the way a real conversational
session would. Type "exit" or send EOF (Ctrl-D) to quit.`,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().Float64Var(&trustScore, "trust", 0, "Caller trust score (0.0-1.0) presented to the gateway")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Log.Sync()
	if trustScore == 0 {
		trustScore = 0.5
	}

	var pending *classify.Pending
	var prior classify.PriorTurn

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(os.Stdout, "> ")
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		out, err := a.Process(context.Background(), line, pending, prior, trustScore, dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			pending = nil
			fmt.Fprint(os.Stdout, "> ")
			continue
		}

		switch {
		case out.DangerousToken != "":
			fmt.Printf("refusing to auto-correct toward %q — please restate explicitly.\n", out.DangerousToken)
			pending = nil
		case out.Introspection != "":
			fmt.Println(out.Introspection)
		case out.Clarification != nil:
			fmt.Println(out.Clarification.Prompt)
			pending = out.Clarification
			fmt.Fprint(os.Stdout, "> ")
			continue
		default:
			pending = nil
			if out.Executed {
				prior = classify.PriorTurn{Intent: out.Command.Intent, Entities: out.Command.Entities, Confidence: out.Command.Confidence}
			} else {
				prior = classify.PriorTurn{}
			}
			if err := renderReport(reportFromTurn(out, dryRun, a)); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
		fmt.Fprint(os.Stdout, "> ")
	}
	fmt.Fprintln(os.Stdout)
	return scanner.Err()
}
