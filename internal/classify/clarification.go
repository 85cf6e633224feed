package classify

import (
	"errors"
	"regexp"
	"strings"
)

// maxClarificationAttempts is the number of invalid answers tolerated
// before a pending clarification is abandoned (spec.md §4.3).
const maxClarificationAttempts = 3

// ErrClarificationAborted is returned once attempts are exhausted.
var ErrClarificationAborted = errors.New("clarification abandoned after repeated invalid answers")

// forbiddenPathChars mirrors common filesystem-forbidden characters; an
// answer containing one of these can never be a valid filename or path.
var forbiddenPathChars = regexp.MustCompile(`[<>:"|?*\x00]`)

// Pending is an outstanding clarification request awaiting the user's next
// utterance as its answer.
type Pending struct {
	Intent     string
	Entities   map[string]string
	Parameter  string
	Prompt     string
	Confidence float64
	Attempts   int
}

// NeedsPathLikeAnswer reports whether Parameter names something that must
// pass the minimum-length/forbidden-character checks (paths and app
// names), as opposed to a free-form value.
func (p Pending) needsPathLikeAnswer() bool {
	switch p.Parameter {
	case "filename", "path", "directory", "app", "url":
		return true
	default:
		return false
	}
}

func validAnswer(p Pending, answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return false
	}
	if p.needsPathLikeAnswer() {
		if len(trimmed) < 2 {
			return false
		}
		if forbiddenPathChars.MatchString(trimmed) {
			return false
		}
	}
	return true
}

// ResolveClarification implements Stage B. On a valid answer it merges the
// answer into the pending parameters, caps confidence at
// min(current+0.25, 0.90), and returns the resolved entities with
// resolved=true. On an invalid answer it increments Attempts and returns
// the same (updated) Pending with resolved=false; once Attempts reaches
// maxClarificationAttempts, err is ErrClarificationAborted and the caller
// must drop the pending state entirely.
func ResolveClarification(pending Pending, answer string) (entities map[string]string, confidence float64, resolved bool, updated Pending, err error) {
	if !validAnswer(pending, answer) {
		pending.Attempts++
		if pending.Attempts >= maxClarificationAttempts {
			return nil, 0, false, pending, ErrClarificationAborted
		}
		return nil, 0, false, pending, nil
	}

	merged := make(map[string]string, len(pending.Entities)+1)
	for k, v := range pending.Entities {
		merged[k] = v
	}
	merged[pending.Parameter] = strings.TrimSpace(answer)

	newConfidence := pending.Confidence + 0.25
	if newConfidence > 0.90 {
		newConfidence = 0.90
	}

	return merged, newConfidence, true, Pending{}, nil
}
