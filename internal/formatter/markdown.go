package formatter

import (
	"fmt"
	"io"
	"text/template"
)

// MarkdownFormatter renders a Report as a human-readable audit note —
// selected with `--output markdown` when the operator wants the full story
// behind one trace ID rather than a table row.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes report as markdown.
func (mf *MarkdownFormatter) Format(w io.Writer, report Report) error {
	data := mf.buildTemplateData(report)

	tmpl, err := template.New("report").Funcs(mf.templateFuncs()).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	return tmpl.Execute(w, data)
}

// Extension returns the file extension for markdown.
func (mf *MarkdownFormatter) Extension() string {
	return ".md"
}

// templateData holds all data for the markdown template.
type templateData struct {
	TraceID           string
	PlanID            string
	Intent            string
	RawInput          string
	RiskLevel         string
	DeterministicHash string
	Outcome           string
	Reason            string
	TrustScore        float64
	CreatedAt         string
	Steps             []StepSummary
	Findings          []string
}

func (mf *MarkdownFormatter) buildTemplateData(report Report) *templateData {
	return &templateData{
		TraceID:           report.TraceID,
		PlanID:            report.PlanID,
		Intent:            report.Intent,
		RawInput:          report.RawInput,
		RiskLevel:         report.RiskLevel,
		DeterministicHash: report.DeterministicHash,
		Outcome:           report.Outcome,
		Reason:            report.Reason,
		TrustScore:        report.TrustScore,
		CreatedAt:         report.CreatedAt.Format("2006-01-02 15:04:05 MST"),
		Steps:             report.Steps,
		Findings:          report.Findings,
	}
}

func (mf *MarkdownFormatter) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"hasSteps": func(s []StepSummary) bool { return len(s) > 0 },
		"hasContent": func(s []string) bool {
			return len(s) > 0
		},
		"resultOf": func(s StepSummary) string {
			if s.Success {
				return "ok"
			}
			return "failed"
		},
	}
}

const markdownTemplate = `# {{ .Intent }}

**Trace:** {{ .TraceID }}
**Plan:** {{ .PlanID }}
**Risk:** {{ .RiskLevel }}
**Outcome:** {{ .Outcome }}
**Created:** {{ .CreatedAt }}

{{- if .RawInput }}

**Utterance:** {{ .RawInput }}
{{- end }}

{{- if .Reason }}

**Reason:** {{ .Reason }}
{{- end }}

{{- if .DeterministicHash }}

**Deterministic hash:** {{ .DeterministicHash }}
{{- end }}

{{- if hasSteps .Steps }}

## Steps

| Step | Tool | Risk | Result |
|------|------|------|--------|
{{- range .Steps }}
| {{ .StepID }} | {{ .ToolName }} | {{ .Risk }} | {{ resultOf . }} |
{{- end }}
{{- end }}

{{- if hasContent .Findings }}

## Findings

{{- range .Findings }}
- {{ . }}
{{- end }}
{{- end }}
`
