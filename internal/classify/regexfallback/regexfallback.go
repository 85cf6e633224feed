// Package regexfallback implements Stage F of the classification cascade
// (spec.md §4.3): the legacy last-resort pattern matcher consulted only
// when every earlier stage fails to produce a usable command. Patterns
// are intentionally broad and low-confidence; this stage exists so the
// cascade never returns bare "unknown" for an utterance that plainly
// names a tool, even a clumsily phrased one.
package regexfallback

import (
	"regexp"
	"strings"
)

// Match is one fallback classification result.
type Match struct {
	Intent     string
	Entities   map[string]string
	Confidence float64
}

// pattern pairs a compiled regex with the intent it implies and the named
// capture groups that become entities.
type pattern struct {
	intent string
	re     *regexp.Regexp
}

// patterns are checked in order; the first match wins. Confidence is fixed
// and low (0.4) since this stage has no semantic understanding at all.
var patterns = []pattern{
	{"delete_file", regexp.MustCompile(`(?i)\b(delete|remove|rm)\b.*?(?P<filename>[\w./\\-]+\.\w+)`)},
	{"create_file", regexp.MustCompile(`(?i)\b(create|new)\b.*?file.*?(?P<filename>[\w./\\-]+\.\w+)?`)},
	{"launch_app", regexp.MustCompile(`(?i)\b(launch|open|start)\b\s+(?P<app>[a-zA-Z0-9_ -]+)`)},
	{"close_app", regexp.MustCompile(`(?i)\bclose\b\s+(?P<app>[a-zA-Z0-9_ -]+)`)},
}

const fallbackConfidence = 0.4

// Classify tries each legacy pattern in order against input and returns the
// first match, or ok=false if nothing matched at all.
func Classify(input string) (Match, bool) {
	trimmed := strings.TrimSpace(input)
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		entities := map[string]string{}
		for i, name := range p.re.SubexpNames() {
			if name == "" || i >= len(m) || m[i] == "" {
				continue
			}
			entities[name] = strings.TrimSpace(m[i])
		}
		return Match{Intent: p.intent, Entities: entities, Confidence: fallbackConfidence}, true
	}
	return Match{}, false
}
