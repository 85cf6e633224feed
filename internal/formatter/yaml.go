package formatter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders a Report as a single YAML document, for `--output
// yaml` alongside the table and JSON formatters.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes report as one YAML document. It reuses the JSONL
// formatter's field layout so json and yaml output carry identical keys.
func (yf *YAMLFormatter) Format(w io.Writer, report Report) error {
	out := (&JSONLFormatter{}).buildOutput(report)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(out)
}

// Extension returns the file extension for YAML.
func (yf *YAMLFormatter) Extension() string {
	return ".yaml"
}
