package formatter

import (
	"encoding/json"
	"io"
)

// JSONLFormatter outputs Reports as JSON Lines: one JSON object per line,
// matching the audit ledger's own on-disk shape so its output can be
// piped straight into the same tooling that reads the ledger file.
type JSONLFormatter struct {
	// Pretty enables indented JSON (not recommended for JSONL).
	Pretty bool
}

// NewJSONLFormatter creates a new JSONL formatter.
func NewJSONLFormatter() *JSONLFormatter {
	return &JSONLFormatter{}
}

// Format writes report as a single JSON line.
func (jf *JSONLFormatter) Format(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if jf.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(jf.buildOutput(report))
}

// Extension returns the file extension for JSONL.
func (jf *JSONLFormatter) Extension() string {
	return ".jsonl"
}

// jsonlOutput is the structure written to JSONL files, field-named to
// match the ledger's own JSONL records.
type jsonlOutput struct {
	TraceID           string            `json:"trace_id" yaml:"trace_id"`
	PlanID            string            `json:"plan_id,omitempty" yaml:"plan_id,omitempty"`
	Intent            string            `json:"intent" yaml:"intent"`
	RawInput          string            `json:"raw_input,omitempty" yaml:"raw_input,omitempty"`
	RiskLevel         string            `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	DeterministicHash string            `json:"deterministic_hash,omitempty" yaml:"deterministic_hash,omitempty"`
	Outcome           string            `json:"outcome" yaml:"outcome"`
	Reason            string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	TrustScore        float64           `json:"trust_score,omitempty" yaml:"trust_score,omitempty"`
	CreatedAt         int64             `json:"created_at" yaml:"created_at"`
	Steps             []jsonlStepOutput `json:"steps,omitempty" yaml:"steps,omitempty"`
	Findings          []string          `json:"findings,omitempty" yaml:"findings,omitempty"`
}

type jsonlStepOutput struct {
	StepID   string `json:"step_id" yaml:"step_id"`
	ToolName string `json:"tool_name" yaml:"tool_name"`
	Risk     string `json:"risk" yaml:"risk"`
	Success  bool   `json:"success" yaml:"success"`
}

// buildOutput creates the JSON output structure.
func (jf *JSONLFormatter) buildOutput(report Report) *jsonlOutput {
	out := &jsonlOutput{
		TraceID:           report.TraceID,
		PlanID:            report.PlanID,
		Intent:            report.Intent,
		RawInput:          report.RawInput,
		RiskLevel:         report.RiskLevel,
		DeterministicHash: report.DeterministicHash,
		Outcome:           report.Outcome,
		Reason:            report.Reason,
		TrustScore:        report.TrustScore,
		CreatedAt:         report.CreatedAt.Unix(),
		Findings:          report.Findings,
	}
	for _, s := range report.Steps {
		out.Steps = append(out.Steps, jsonlStepOutput{
			StepID:   s.StepID,
			ToolName: s.ToolName,
			Risk:     s.Risk,
			Success:  s.Success,
		})
	}
	return out
}
