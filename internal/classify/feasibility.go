package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/boshu2/lyra/internal/taxonomy"
)

var urlRe = regexp.MustCompile(`(?i)^https?://[^\s]+$`)

// Verdict is the Feasibility Validator's outcome for one candidate.
type Verdict struct {
	Feasible              bool
	RequiresClarification bool
	ClarificationPrompt   string
	MissingParameter      string
	Reason                string
}

// Validate checks intent's required parameter is present and, if present,
// passes the real-world feasibility rules (URL format, app allowlist
// membership). Intents outside the taxonomy always pass.
func Validate(intent string, entities map[string]string) Verdict {
	name, prompt, ok := taxonomy.RequiredParameter(intent)
	if !ok {
		return Verdict{Feasible: true}
	}

	value, present := entities[name]
	if !present || strings.TrimSpace(value) == "" {
		return Verdict{RequiresClarification: true, ClarificationPrompt: prompt, MissingParameter: name}
	}

	switch name {
	case "url":
		if !urlRe.MatchString(value) {
			return Verdict{RequiresClarification: true, ClarificationPrompt: prompt, MissingParameter: name,
				Reason: fmt.Sprintf("%q is not a well-formed URL", value)}
		}
	case "app":
		if !taxonomy.IsKnownApp(strings.ToLower(value)) {
			return Verdict{RequiresClarification: true, ClarificationPrompt: prompt, MissingParameter: name,
				Reason: fmt.Sprintf("%q is not a recognized application", value)}
		}
	}

	return Verdict{Feasible: true}
}
