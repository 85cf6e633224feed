// Command lyra is the CLI entry point for the command governance pipeline:
// it normalizes and classifies a natural-language utterance, freezes it
// into an auditable plan, and runs the plan through the execution gateway.
package main

func main() {
	Execute()
}
