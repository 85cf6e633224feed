// Package classify implements the Intent Classification Cascade of
// spec.md §4.3: six stages tried in strict priority order, the first to
// produce a non-unknown command wins. Sub-packages hold the heavier
// stage-specific logic (embedding vector math, semantic rule engine and
// parameter extractors, regex fallback patterns); this file is the
// orchestrator that threads a single utterance through all six.
package classify

import (
	"context"

	"github.com/boshu2/lyra/internal/classify/embedding"
	"github.com/boshu2/lyra/internal/classify/regexfallback"
	"github.com/boshu2/lyra/internal/classify/semantic"
	"github.com/boshu2/lyra/internal/types"
)

// PriorTurn carries the previous successful intent state Stage C needs,
// sourced from session.Memory.
type PriorTurn struct {
	Intent     string
	Entities   map[string]string
	Confidence float64
}

// Cascade wires all six stages together. EmbeddingClassifier may be nil
// (e.g. the model failed to load below the memory floor), in which case
// Stage D is skipped and control falls through to Stage E.
type Cascade struct {
	EmbeddingClassifier *embedding.Classifier
}

// Outcome is the cascade's result for one utterance: either a usable
// command, an outstanding clarification, or an introspection bypass.
type Outcome struct {
	Command       types.Command
	Clarification *Pending
	Introspection string
	Aborted       bool
}

// Run threads input through Stage A-F in priority order. pending is the
// caller's current outstanding clarification (nil if none); prior is the
// caller's last successful intent (zero value if none). confidenceModifier
// is the conversational-layer multiplier (spec.md §4.2/§4.3).
func (c *Cascade) Run(ctx context.Context, input string, pending *Pending, prior PriorTurn, confidenceModifier float64) (Outcome, error) {
	// Stage A.
	if cmd, ok := Introspect(input); ok {
		return Outcome{Introspection: cmd}, nil
	}

	// Stage B.
	if pending != nil {
		entities, confidence, resolved, updated, err := ResolveClarification(*pending, input)
		if err != nil {
			return Outcome{Aborted: true}, nil
		}
		if resolved {
			return Outcome{Command: types.Command{
				RawInput:       input,
				Intent:         pending.Intent,
				Entities:       entities,
				Confidence:     confidence,
				DecisionSource: types.SourceClarification,
			}}, nil
		}
		return Outcome{Clarification: &updated}, nil
	}

	// Stage C.
	if refined, ok := Refine(prior.Intent, prior.Entities, prior.Confidence, input); ok {
		return c.finalize(refined.Intent, refined.Entities, refined.Confidence*confidenceModifier, types.SourceRefinement)
	}

	// Stage D.
	if c.EmbeddingClassifier != nil {
		result, err := c.EmbeddingClassifier.Classify(ctx, input)
		if err == nil && !result.Unknown {
			cmd := types.Command{
				RawInput:           input,
				Intent:             result.Intent,
				Entities:           map[string]string{},
				Confidence:         result.Score * confidenceModifier,
				DecisionSource:     types.SourceEmbedding,
				RequiresEscalation: result.RequiresEscalation,
			}
			return c.applyFeasibility(cmd)
		}
	}

	// Stage E.
	for _, segment := range semantic.Split(input) {
		if candidate, ok := semantic.ClassifySegment(segment); ok {
			cmd := types.Command{
				RawInput:       segment,
				Intent:         candidate.Intent,
				Entities:       candidate.Entities,
				Confidence:     candidate.Confidence * confidenceModifier,
				DecisionSource: types.SourceSemantic,
			}
			return c.applyFeasibility(cmd)
		}
	}

	// Stage F.
	if match, ok := regexfallback.Classify(input); ok {
		cmd := types.Command{
			RawInput:       input,
			Intent:         match.Intent,
			Entities:       match.Entities,
			Confidence:     match.Confidence * confidenceModifier,
			DecisionSource: types.SourceRegex,
		}
		return c.applyFeasibility(cmd)
	}

	return Outcome{Command: types.Command{
		RawInput:       input,
		Intent:         "unknown",
		Entities:       map[string]string{},
		DecisionSource: types.SourceRegex,
	}}, nil
}

func (c *Cascade) finalize(intent string, entities map[string]string, confidence float64, source types.DecisionSource) (Outcome, error) {
	cmd := types.Command{Intent: intent, Entities: entities, Confidence: confidence, DecisionSource: source}
	return c.applyFeasibility(cmd)
}

// applyFeasibility runs the Feasibility Validator against a candidate
// command and, on a missing or infeasible required parameter, converts the
// outcome into an outstanding clarification instead of a usable command.
func (c *Cascade) applyFeasibility(cmd types.Command) (Outcome, error) {
	verdict := Validate(cmd.Intent, cmd.Entities)
	if verdict.RequiresClarification {
		return Outcome{Clarification: &Pending{
			Intent:     cmd.Intent,
			Entities:   cmd.Entities,
			Parameter:  verdict.MissingParameter,
			Prompt:     verdict.ClarificationPrompt,
			Confidence: cmd.Confidence,
		}}, nil
	}
	cmd.RequiresClarification = false
	return Outcome{Command: cmd}, nil
}
