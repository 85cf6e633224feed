// Package compressor implements the Context Compressor of spec.md §4.4: it
// bounds conversation history before an advisor call once a session's turn
// count crosses a configured threshold.
//
// Adapted from the teacher's internal/context budget-tracking package
// (renamed from "context" to avoid shadowing the stdlib context package,
// which every blocking call in this pipeline also needs to import).
package compressor

import (
	"github.com/boshu2/lyra/internal/types"
)

// Config controls when and how compression runs.
type Config struct {
	// TriggerTurnCount is the session turn count that triggers compression.
	TriggerTurnCount int
	// PreserveCount is how many of the most recent turns survive verbatim.
	PreserveCount int
}

// DefaultConfig matches spec.md §4.4's stated defaults.
func DefaultConfig() Config {
	return Config{TriggerTurnCount: 20, PreserveCount: 6}
}

// Summarizer produces a one-line summary of the turns being dropped.
// RuleBasedSummarizer is the only implementation in this tree and the one
// App.RunGoal passes; the Advisor interface has no summary operation, so
// no advisor-backed Summarizer exists.
type Summarizer interface {
	Summarize(turns []types.Turn) (string, error)
}

// RuleBasedSummarizer extracts unique intents, filenames, and completed
// actions from dropped turns without calling out to the advisor.
type RuleBasedSummarizer struct{}

// Summarize implements Summarizer using only the turn metadata already
// attached by earlier pipeline stages.
func (RuleBasedSummarizer) Summarize(turns []types.Turn) (string, error) {
	intents := map[string]bool{}
	files := map[string]bool{}
	var order []string
	for _, t := range turns {
		if intent := t.Metadata["intent"]; intent != "" && !intents[intent] {
			intents[intent] = true
			order = append(order, intent)
		}
		if f := t.Metadata["filename"]; f != "" {
			files[f] = true
		}
	}
	summary := "prior turns covered: "
	for i, intent := range order {
		if i > 0 {
			summary += ", "
		}
		summary += intent
	}
	if len(files) > 0 {
		summary += "; files touched: "
		first := true
		for f := range files {
			if !first {
				summary += ", "
			}
			summary += f
			first = false
		}
	}
	return summary, nil
}

// Compress reduces history to the most recent PreserveCount turns plus any
// turn carrying a safety marker, replacing everything else with a single
// summary turn. It is a no-op if the session has not crossed
// cfg.TriggerTurnCount.
func Compress(cfg Config, history []types.Turn, summarizer Summarizer) ([]types.Turn, error) {
	if len(history) <= cfg.TriggerTurnCount {
		return history, nil
	}

	cutoff := len(history) - cfg.PreserveCount
	if cutoff < 0 {
		cutoff = 0
	}
	older := history[:cutoff]
	recent := history[cutoff:]

	var preserved []types.Turn
	var dropped []types.Turn
	for _, t := range older {
		if t.HasSafetyMarker() {
			preserved = append(preserved, t)
		} else {
			dropped = append(dropped, t)
		}
	}

	result := make([]types.Turn, 0, len(preserved)+1+len(recent))
	result = append(result, preserved...)

	if len(dropped) > 0 {
		summary, err := summarizer.Summarize(dropped)
		if err != nil {
			return nil, err
		}
		result = append(result, types.Turn{
			Role:     "system",
			Content:  summary,
			Metadata: map[string]string{"compressed": "true"},
		})
	}

	result = append(result, recent...)
	return result, nil
}
