// Package advisor defines the Advisor contract of spec.md §4.4: an
// external reasoning call made when the cascade and depth controller
// decide local classification isn't enough. Concrete transport lives in
// advisor/openai.go; this file holds the contract and the
// malformed-output handling every transport must share.
package advisor

import "context"

// Request is what the caller hands the advisor: the normalized utterance,
// the current best guess (if any), the reasoning depth instruction, the
// session's language code, and the (possibly compressed) turn history
// rendered as plain text.
type Request struct {
	Utterance      string
	BestGuess      string
	DepthInstruction string
	LanguageCode   string
	History        string
}

// Recommendation is the advisor's well-formed response. It never supplies
// parameters directly — the caller always re-runs parameter extraction
// against Intent.
type Recommendation struct {
	Intent            string
	Confidence        float64
	NeedsConfirmation bool
	Reasoning         string
}

// Response is a tagged variant: either a well-formed Recommendation, or a
// record that the advisor's output could not be parsed as one.
type Response struct {
	Ok        bool
	Recommendation Recommendation
	Malformed bool
	RawText   string
}

// Advisor is the contract every concrete transport implements.
type Advisor interface {
	Advise(ctx context.Context, req Request) (Response, error)
}
