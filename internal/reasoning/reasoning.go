// Package reasoning implements the depth controller and escalation rules
// of spec.md §4.4: it decides how deeply a command should be reasoned
// about before acting, and when control should escalate to the external
// advisor or, beyond that, the task orchestrator.
package reasoning

import "strings"

// Depth is the reasoning-depth label.
type Depth string

const (
	DepthShallow  Depth = "SHALLOW"
	DepthStandard Depth = "STANDARD"
	DepthDeep     Depth = "DEEP"
)

// Emotion is the detected emotional register the depth controller consults.
type Emotion string

const (
	EmotionNeutral    Emotion = "neutral"
	EmotionAngry      Emotion = "angry"
	EmotionFrustrated Emotion = "frustrated"
	EmotionSarcastic  Emotion = "sarcastic"
)

var planningKeywords = []string{"organize", "schedule", "plan", "optimize", "arrange", "coordinate"}

var multiStepIndicators = []string{"then", "after that", "next"}

func containsAny(lower string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// HasPlanningKeyword reports whether utterance names a planning verb.
func HasPlanningKeyword(utterance string) bool {
	return containsAny(strings.ToLower(utterance), planningKeywords)
}

func hasMultiStepIndicator(lower string) bool {
	return containsAny(lower, multiStepIndicators)
}

func isUpsetEmotion(e Emotion) bool {
	return e == EmotionAngry || e == EmotionFrustrated || e == EmotionSarcastic
}

// Input bundles the signals the depth controller needs.
type Input struct {
	Utterance          string
	Ambiguity          float64
	EmbeddingConfidence float64
	TurnCount          int
	Emotion            Emotion
}

// ComputeDepth derives SHALLOW | STANDARD | DEEP per spec.md §4.4.
func ComputeDepth(in Input) Depth {
	lower := strings.ToLower(in.Utterance)
	planning := HasPlanningKeyword(in.Utterance)

	if planning || hasMultiStepIndicator(lower) || in.Ambiguity > 0.5 {
		return DepthDeep
	}

	shallowEligible := in.EmbeddingConfidence >= 0.85 && in.Ambiguity < 0.2 && in.TurnCount <= 2 && !planning
	if shallowEligible {
		if in.Emotion == EmotionNeutral {
			return DepthShallow
		}
		if isUpsetEmotion(in.Emotion) {
			return DepthStandard
		}
	}

	return DepthStandard
}

// EscalationInput bundles the signals the escalation decision needs.
type EscalationInput struct {
	IntentClassified    bool
	ConversationalOnly  bool
	PlanningKeywordSeen bool
	RequiresEscalation  bool
	Depth               Depth
}

// ShouldEscalate reports whether control should pass to the external
// advisor: any of the four triggering conditions, provided depth is not
// SHALLOW.
func ShouldEscalate(in EscalationInput) bool {
	if in.Depth == DepthShallow {
		return false
	}
	return !in.IntentClassified || in.ConversationalOnly || in.PlanningKeywordSeen || in.RequiresEscalation
}

// LoopWindowSize is how many recent advisor-recommended intents the
// escalation-loop detector inspects.
const LoopWindowSize = 3

// AdvisorAttempt is one recorded advisor recommendation outcome.
type AdvisorAttempt struct {
	Intent       string
	Succeeded    bool
	AboveShallow bool
}

// DetectEscalationLoop flags a loop when the most recent LoopWindowSize
// advisor attempts all recommended the same intent, none succeeded, and at
// least one was produced above SHALLOW depth.
func DetectEscalationLoop(recent []AdvisorAttempt) bool {
	if len(recent) < LoopWindowSize {
		return false
	}
	window := recent[len(recent)-LoopWindowSize:]
	first := window[0].Intent
	anyAboveShallow := false
	for _, a := range window {
		if a.Intent != first {
			return false
		}
		if a.Succeeded {
			return false
		}
		if a.AboveShallow {
			anyAboveShallow = true
		}
	}
	return anyAboveShallow
}
