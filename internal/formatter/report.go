// Package formatter renders the governance pipeline's records — classified
// commands, frozen plans, and audit outcomes — as table, JSON, YAML, or
// markdown output for the `run`, `repl`, `simulate`, and `history` CLI
// commands.
package formatter

import "time"

// StepSummary is one plan step's formatter-facing projection.
type StepSummary struct {
	StepID   string
	ToolName string
	Risk     string
	Success  bool
}

// Report is the format-agnostic projection of one governed command's
// lifecycle: its classification, the plan it produced, and how execution
// and audit resolved it. The table, JSONL, and markdown formatters each
// render the same Report differently.
type Report struct {
	TraceID           string
	PlanID            string
	Intent            string
	RawInput          string
	RiskLevel         string
	DeterministicHash string
	Outcome           string // "allowed", "denied", "simulated"
	Reason            string
	TrustScore        float64
	CreatedAt         time.Time
	Steps             []StepSummary
	Findings          []string
}
