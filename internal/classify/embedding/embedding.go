// Package embedding implements Stage D of the classification cascade
// (spec.md §4.3): cosine similarity against pre-computed per-intent phrase
// embeddings, with a high/low threshold band that decides whether the
// best match wins outright, wins with an escalation flag, or falls
// through as unknown. The model lifecycle (lazy load, RAM guard, idle
// unload) lives in internal/embedding; this package only does the vector
// math and threshold policy.
package embedding

import (
	"context"
	"math"
)

// Thresholds governs the high/low confidence band of spec.md §4.3.
type Thresholds struct {
	High float64
	Low  float64
}

// DefaultThresholds matches spec.md's stated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.75, Low: 0.5}
}

// Encoder turns text into a vector. internal/embedding.Handle satisfies
// this via its Encode method.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float64, error)
}

// IntentVector is one pre-computed phrase embedding for an intent.
type IntentVector struct {
	Intent string
	Vector []float64
}

// Classifier holds the pre-computed per-intent phrase embeddings an
// utterance is compared against.
type Classifier struct {
	encoder    Encoder
	thresholds Thresholds
	intents    []IntentVector
}

// NewClassifier constructs a Classifier over a fixed set of intent phrase
// vectors.
func NewClassifier(encoder Encoder, thresholds Thresholds, intents []IntentVector) *Classifier {
	return &Classifier{encoder: encoder, thresholds: thresholds, intents: intents}
}

// Result is Stage D's verdict for one utterance.
type Result struct {
	Intent             string
	Score              float64
	Unknown            bool
	RequiresEscalation bool
}

// Classify encodes input and returns the best-matching intent per the
// high/low threshold band.
func (c *Classifier) Classify(ctx context.Context, input string) (Result, error) {
	vec, err := c.encoder.Encode(ctx, input)
	if err != nil {
		return Result{}, err
	}

	var best IntentVector
	bestScore := -1.0
	for _, iv := range c.intents {
		score := cosineSimilarity(vec, iv.Vector)
		if score > bestScore {
			bestScore = score
			best = iv
		}
	}

	switch {
	case bestScore >= c.thresholds.High:
		return Result{Intent: best.Intent, Score: bestScore}, nil
	case bestScore >= c.thresholds.Low:
		return Result{Intent: best.Intent, Score: bestScore, RequiresEscalation: true}, nil
	default:
		return Result{Intent: "unknown", Score: bestScore, Unknown: true, RequiresEscalation: true}, nil
	}
}

// cosineSimilarity computes the cosine of the angle between a and b. Unequal
// lengths or zero-magnitude vectors yield 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
