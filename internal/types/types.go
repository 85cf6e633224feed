// Package types defines the shared data model of the command governance
// pipeline: classified commands, risk levels, and decision provenance.
package types

import "time"

// RiskLevel orders the severity of a plan step or plan.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// riskRank orders RiskLevel values for comparison.
var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Less reports whether r is strictly lower risk than other.
func (r RiskLevel) Less(other RiskLevel) bool {
	return riskRank[r] < riskRank[other]
}

// Max returns the higher of two risk levels.
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if r.Less(other) {
		return other
	}
	return r
}

// Valid reports whether r is one of the four defined risk levels.
func (r RiskLevel) Valid() bool {
	_, ok := riskRank[r]
	return ok
}

// DecisionSource identifies which cascade stage (or later subsystem)
// produced a Command.
type DecisionSource string

const (
	SourceClarification DecisionSource = "clarification"
	SourceRefinement    DecisionSource = "refinement"
	SourceEmbedding     DecisionSource = "embedding"
	SourceSemantic      DecisionSource = "semantic"
	SourceRegex         DecisionSource = "regex"
	SourceAdvisor       DecisionSource = "advisor"
	SourceOrchestrator  DecisionSource = "orchestrator"
)

// Command is a classified user instruction. It is immutable once a
// classification stage returns it to the caller.
type Command struct {
	RawInput       string            `json:"raw_input"`
	Intent         string            `json:"intent"`
	Entities       map[string]string `json:"entities"`
	Confidence     float64           `json:"confidence"`
	DecisionSource DecisionSource    `json:"decision_source"`

	// RequiresClarification is set by the feasibility validator when a
	// required parameter is missing.
	RequiresClarification bool `json:"requires_clarification,omitempty"`

	// RequiresEscalation is set when the embedding stage's confidence fell
	// in the mid band, or the command otherwise warrants advisor review.
	RequiresEscalation bool `json:"requires_escalation,omitempty"`
}

// Clone returns a deep copy of the command, safe to mutate independently.
func (c Command) Clone() Command {
	out := c
	out.Entities = make(map[string]string, len(c.Entities))
	for k, v := range c.Entities {
		out.Entities[k] = v
	}
	return out
}

// Turn is one entry of conversational history.
type Turn struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// HasSafetyMarker reports whether the turn is tagged with one of the
// markers the context compressor must always preserve.
func (t Turn) HasSafetyMarker() bool {
	switch t.Metadata["risk_level"] {
	case string(RiskHigh), string(RiskCritical):
		return true
	}
	for _, k := range []string{"confirmation_required", "safety_violation", "execution_log"} {
		if t.Metadata[k] != "" {
			return true
		}
	}
	return false
}
