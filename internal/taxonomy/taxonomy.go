// Package taxonomy is the single catalog of canonical intents the
// governance pipeline recognizes: each intent's category, declared risk
// level, and the one required parameter the Feasibility Validator
// (spec.md §4.3) checks before a candidate can reach planning. The
// semantic classifier (Stage E) and the feasibility validator both
// consult this catalog rather than keeping their own copies, so adding a
// new intent or changing its risk level is a one-place edit.
package taxonomy

import (
	"strings"

	"github.com/boshu2/lyra/internal/types"
)

// Category groups related intents for reporting and capability lookups.
type Category string

const (
	CategoryFilesystem  Category = "filesystem"
	CategoryApplication Category = "application"
	CategoryNetwork     Category = "network"
)

// IntentDefinition is the taxonomy's entry for one canonical intent.
type IntentDefinition struct {
	Intent              string
	Category            Category
	RiskLevel           types.RiskLevel
	RequiredParameter   string
	ClarificationPrompt string
}

// Intents is the closed set of intents the pipeline knows about. An
// intent absent from this map is passed through the feasibility
// validator with no required-parameter check and defaults to RiskLow
// wherever a risk lookup is needed.
var Intents = map[string]IntentDefinition{
	"delete_file": {
		Intent: "delete_file", Category: CategoryFilesystem, RiskLevel: types.RiskHigh,
		RequiredParameter: "filename", ClarificationPrompt: "Which file would you like me to delete?",
	},
	"create_file": {
		Intent: "create_file", Category: CategoryFilesystem, RiskLevel: types.RiskLow,
		RequiredParameter: "filename", ClarificationPrompt: "What should the new file be named?",
	},
	"move_file": {
		Intent: "move_file", Category: CategoryFilesystem, RiskLevel: types.RiskMedium,
		RequiredParameter: "filename", ClarificationPrompt: "Which file would you like to move?",
	},
	"copy_file": {
		Intent: "copy_file", Category: CategoryFilesystem, RiskLevel: types.RiskLow,
		RequiredParameter: "filename", ClarificationPrompt: "Which file would you like to copy?",
	},
	"launch_app": {
		Intent: "launch_app", Category: CategoryApplication, RiskLevel: types.RiskLow,
		RequiredParameter: "app", ClarificationPrompt: "Which application would you like me to open?",
	},
	"close_app": {
		Intent: "close_app", Category: CategoryApplication, RiskLevel: types.RiskMedium,
		RequiredParameter: "app", ClarificationPrompt: "Which application would you like me to close?",
	},
	"download_file": {
		Intent: "download_file", Category: CategoryNetwork, RiskLevel: types.RiskMedium,
		RequiredParameter: "url", ClarificationPrompt: "What URL should I download from?",
	},
	"search_web": {
		Intent: "search_web", Category: CategoryNetwork, RiskLevel: types.RiskLow,
		RequiredParameter: "query", ClarificationPrompt: "What would you like me to search for?",
	},
}

// KnownApps is the allowlist of application names the feasibility
// validator and the semantic classifier's app-name extractor both
// recognize. A real deployment populates this from configuration; a
// sane built-in default is given here.
var KnownApps = map[string]bool{
	"spotify": true, "chrome": true, "firefox": true, "safari": true,
	"terminal": true, "finder": true, "mail": true, "calendar": true,
	"slack": true, "vscode": true, "code": true,
}

// IsKnownApp reports whether name (case-insensitive) is in the allowlist.
func IsKnownApp(name string) bool {
	return KnownApps[strings.ToLower(name)]
}

// RequiredParameter returns the parameter name and clarification prompt
// an intent requires, and whether the intent is in the taxonomy at all.
func RequiredParameter(intent string) (param, prompt string, ok bool) {
	def, present := Intents[intent]
	if !present {
		return "", "", false
	}
	return def.RequiredParameter, def.ClarificationPrompt, true
}

// RiskFor returns an intent's declared risk level, defaulting to RiskLow
// for intents outside the taxonomy.
func RiskFor(intent string) types.RiskLevel {
	if def, ok := Intents[intent]; ok {
		return def.RiskLevel
	}
	return types.RiskLow
}

// KnownIntents returns every intent name in the taxonomy, suitable for
// building an orchestrator.IntentKnown predicate.
func KnownIntents() []string {
	out := make([]string, 0, len(Intents))
	for name := range Intents {
		out = append(out, name)
	}
	return out
}
