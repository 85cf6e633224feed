package formatter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestNewJSONLFormatter(t *testing.T) {
	f := NewJSONLFormatter()
	if f == nil {
		t.Fatal("NewJSONLFormatter returned nil")
	}
	if f.Pretty {
		t.Error("Pretty should be false by default")
	}
}

func TestJSONLFormatter_Extension(t *testing.T) {
	f := NewJSONLFormatter()
	if f.Extension() != ".jsonl" {
		t.Errorf("Extension() = %q, want %q", f.Extension(), ".jsonl")
	}
}

func TestJSONLFormatter_Format_WritesSingleLine(t *testing.T) {
	f := NewJSONLFormatter()
	report := Report{
		TraceID:   "trace-1",
		PlanID:    "plan-1",
		Intent:    "delete_file",
		RiskLevel: "HIGH",
		Outcome:   "success",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Steps: []StepSummary{
			{StepID: "s1", ToolName: "delete_file", Risk: "HIGH", Success: true},
		},
		Findings: []string{"malformed advisor output rate elevated"},
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, report); err != nil {
		t.Fatalf("Format: %v", err)
	}

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line, got %d", len(lines))
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(lines[0], &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded["trace_id"] != "trace-1" {
		t.Errorf("trace_id = %v, want trace-1", decoded["trace_id"])
	}
	if decoded["intent"] != "delete_file" {
		t.Errorf("intent = %v, want delete_file", decoded["intent"])
	}
	if decoded["created_at"] != float64(1700000000) {
		t.Errorf("created_at = %v, want 1700000000", decoded["created_at"])
	}

	steps, ok := decoded["steps"].([]interface{})
	if !ok || len(steps) != 1 {
		t.Fatalf("expected one step in output, got %v", decoded["steps"])
	}
}

func TestJSONLFormatter_Format_OmitsEmptyOptionalFields(t *testing.T) {
	f := NewJSONLFormatter()
	report := Report{TraceID: "trace-2", Intent: "launch_app", Outcome: "success", CreatedAt: time.Unix(0, 0).UTC()}

	var buf bytes.Buffer
	if err := f.Format(&buf, report); err != nil {
		t.Fatalf("Format: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	for _, absent := range []string{"plan_id", "risk_level", "deterministic_hash", "reason", "steps", "findings"} {
		if _, present := decoded[absent]; present {
			t.Errorf("expected %q to be omitted when empty, got %v", absent, decoded[absent])
		}
	}
}

func TestJSONLFormatter_Format_Pretty(t *testing.T) {
	f := NewJSONLFormatter()
	f.Pretty = true
	report := Report{TraceID: "trace-3", Intent: "create_file", Outcome: "success", CreatedAt: time.Unix(0, 0).UTC()}

	var buf bytes.Buffer
	if err := f.Format(&buf, report); err != nil {
		t.Fatalf("Format: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("\n  ")) {
		t.Errorf("expected indented JSON output, got:\n%s", buf.String())
	}
}
