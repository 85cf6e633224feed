package classify

import (
	"regexp"
	"strings"
)

// refinementConfidencePenalty is subtracted from the prior intent's
// confidence on a successful refinement match, so a revised high-risk
// action re-enters confirmation rather than silently inheriting trust
// from the original (spec.md §4.3).
const refinementConfidencePenalty = 0.05

// refinementPatterns recognizes an utterance as correcting the previous
// turn rather than issuing a new command. Each pattern's first capture
// group is the new value for targetParam.
var refinementPatterns = []struct {
	re           *regexp.Regexp
	targetParam  string
}{
	{regexp.MustCompile(`(?i)^(?:no,?\s+|actually,?\s+)?change (?:the )?name to (.+)$`), "filename"},
	{regexp.MustCompile(`(?i)^(?:no,?\s+|actually,?\s+)?rename(?: it)? to (.+)$`), "filename"},
	{regexp.MustCompile(`(?i)^(?:no,?\s+|actually,?\s+)?instead use (.+)$`), "filename"},
}

// makeItShorterRe is a parameterless refinement: it doesn't set a new
// value, it signals the prior intent should be retried with a trimmed
// value of its existing target parameter.
var makeItShorterRe = regexp.MustCompile(`(?i)^(?:no,?\s+|actually,?\s+)?make it shorter$`)

// Refined is the result of a successful Stage C match.
type Refined struct {
	Intent     string
	Entities   map[string]string
	Confidence float64
}

// Refine implements Stage C: if utterance matches a refinement pattern, it
// clones priorEntities and mutates the targeted parameter, returning the
// prior intent's confidence reduced by refinementConfidencePenalty. ok is
// false if nothing matched, in which case the caller should fall through
// to Stage D.
func Refine(priorIntent string, priorEntities map[string]string, priorConfidence float64, utterance string) (Refined, bool) {
	if priorIntent == "" {
		return Refined{}, false
	}
	trimmed := strings.TrimSpace(utterance)

	for _, p := range refinementPatterns {
		m := p.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		entities := cloneEntities(priorEntities)
		entities[p.targetParam] = strings.TrimSpace(m[1])
		return Refined{Intent: priorIntent, Entities: entities, Confidence: penalize(priorConfidence)}, true
	}

	if makeItShorterRe.MatchString(trimmed) {
		entities := cloneEntities(priorEntities)
		if v, ok := entities["filename"]; ok {
			entities["filename"] = shorten(v)
		}
		return Refined{Intent: priorIntent, Entities: entities, Confidence: penalize(priorConfidence)}, true
	}

	return Refined{}, false
}

func penalize(confidence float64) float64 {
	c := confidence - refinementConfidencePenalty
	if c < 0 {
		return 0
	}
	return c
}

func cloneEntities(entities map[string]string) map[string]string {
	out := make(map[string]string, len(entities))
	for k, v := range entities {
		out[k] = v
	}
	return out
}

// shorten trims a filename's base name to at most 12 characters, keeping
// its extension, as a simple stand-in for "make it shorter".
func shorten(name string) string {
	dot := strings.LastIndex(name, ".")
	base, ext := name, ""
	if dot > 0 {
		base, ext = name[:dot], name[dot:]
	}
	if len(base) > 12 {
		base = base[:12]
	}
	return base + ext
}
