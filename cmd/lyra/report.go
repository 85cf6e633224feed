package main

import (
	"fmt"
	"io"
	"os"

	"github.com/boshu2/lyra/internal/app"
	"github.com/boshu2/lyra/internal/formatter"
	"github.com/boshu2/lyra/internal/ledger"
)

// reportFromLedgerEntry projects one audit entry into the formatter's
// output-agnostic Report shape.
func reportFromLedgerEntry(e ledger.Entry) formatter.Report {
	return formatter.Report{
		TraceID:           e.TraceID,
		PlanID:            e.PlanID,
		Intent:            e.Intent,
		RiskLevel:         string(e.RiskLevel),
		DeterministicHash: e.DeterministicHash,
		Outcome:           e.Outcome,
		Reason:            e.Reason,
		TrustScore:        e.TrustScore,
		CreatedAt:         e.Timestamp,
	}
}

// reportFromDryRun projects a dry-run outcome (which never reaches the
// ledger) into a Report so --dry-run gets the same rendering path as a
// real run.
func reportFromDryRun(out app.Outcome) formatter.Report {
	steps := make([]formatter.StepSummary, 0, len(out.Frozen.Steps()))
	for _, s := range out.Frozen.Steps() {
		steps = append(steps, formatter.StepSummary{
			StepID:   s.StepID,
			ToolName: s.ToolName,
			Risk:     string(s.StepRisk),
		})
	}
	var findings []string
	for _, f := range out.Risk.Factors {
		findings = append(findings, f.Message)
	}
	return formatter.Report{
		PlanID:            out.Frozen.PlanID(),
		Intent:            out.Command.Intent,
		RawInput:          out.RawInput,
		RiskLevel:         string(out.Risk.CumulativeRisk),
		DeterministicHash: out.Frozen.DeterministicHash(),
		Outcome:           "simulated",
		CreatedAt:         out.Frozen.CreatedAt(),
		Steps:             steps,
		Findings:          findings,
	}
}

// reportFromTurn picks the right projection for one repl turn's outcome:
// a dry-run never reaches the ledger, so it falls back to the frozen plan
// and risk report directly; otherwise the ledger's freshly appended entry
// carries the authoritative trace ID and outcome.
func reportFromTurn(out app.Outcome, dryRun bool, a *app.App) formatter.Report {
	if dryRun {
		return reportFromDryRun(out)
	}
	entries := a.Ledger.Entries()
	if len(entries) == 0 {
		return reportFromDryRun(out)
	}
	return reportFromLedgerEntry(entries[len(entries)-1])
}

// renderReport writes report to stdout using the formatter named by the
// --output flag (table, json, yaml, or markdown), defaulting to table.
func renderReport(report formatter.Report) error {
	return renderReportTo(os.Stdout, report)
}

func renderReportTo(w io.Writer, report formatter.Report) error {
	switch output {
	case "json":
		return formatter.NewJSONLFormatter().Format(w, report)
	case "yaml":
		return formatter.NewYAMLFormatter().Format(w, report)
	case "markdown", "md":
		return formatter.NewMarkdownFormatter().Format(w, report)
	case "table", "":
		return formatter.RenderReportTable(w, []formatter.Report{report})
	default:
		return fmt.Errorf("unknown output format %q (want table, json, yaml, or markdown)", output)
	}
}

// renderReports writes a slice of reports, used by list-style commands
// (history). json/yaml output one line/document per report so the result
// stays streamable; table output renders all rows in one call.
func renderReports(reports []formatter.Report) error {
	if output == "table" || output == "" {
		return formatter.RenderReportTable(os.Stdout, reports)
	}
	for _, r := range reports {
		if err := renderReport(r); err != nil {
			return err
		}
	}
	return nil
}
