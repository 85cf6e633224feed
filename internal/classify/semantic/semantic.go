// Package semantic implements Stage E of the classification cascade
// (spec.md §4.3): a rule-based engine that splits multi-action utterances
// on connector phrases, classifies each segment with a keyword/regex
// ruleset, and fills missing entities with a set of per-intent parameter
// extractors (filenames by extension, URLs, directory keywords, quoted
// strings, and known application names).
package semantic

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/boshu2/lyra/internal/taxonomy"
)

// connectors splits a multi-action utterance into independent segments.
// Longer connectors are checked first so "and then" isn't cut at "and".
var connectors = []string{" and then ", " then ", " and "}

// Split breaks input into one or more segments on the connector phrases
// spec.md §4.3 names, preserving segment order.
func Split(input string) []string {
	segments := []string{input}
	for _, conn := range connectors {
		var next []string
		for _, seg := range segments {
			parts := strings.Split(seg, conn)
			next = append(next, parts...)
		}
		segments = next
	}
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Candidate is one segment's classification result before the feasibility
// validator runs.
type Candidate struct {
	Intent               string
	Entities             map[string]string
	Confidence           float64
	RequiresClarification bool
}

// rule is one keyword-triggered intent classifier.
type rule struct {
	intent   string
	keywords []string
	confidence float64
}

var rules = []rule{
	{"delete_file", []string{"delete", "remove", "trash"}, 0.8},
	{"create_file", []string{"create", "make", "new file"}, 0.8},
	{"move_file", []string{"move", "relocate"}, 0.75},
	{"copy_file", []string{"copy", "duplicate"}, 0.75},
	{"launch_app", []string{"launch", "open", "start"}, 0.8},
	{"close_app", []string{"close", "quit", "exit"}, 0.8},
	{"download_file", []string{"download", "fetch", "grab"}, 0.75},
	{"search_web", []string{"search", "google", "look up"}, 0.7},
}

// ClassifySegment runs the keyword ruleset against one segment. The first
// rule whose keyword appears wins; no match returns ok=false so the
// regex-fallback stage can still try.
func ClassifySegment(segment string) (Candidate, bool) {
	lower := strings.ToLower(segment)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				entities := Extract(r.intent, segment)
				return Candidate{
					Intent:     r.intent,
					Entities:   entities,
					Confidence: r.confidence,
				}, true
			}
		}
	}
	return Candidate{}, false
}

var (
	filenameRe  = regexp.MustCompile(`[\w.\-/\\]+\.[a-zA-Z0-9]{1,8}\b`)
	urlRe       = regexp.MustCompile(`(?i)\bhttps?://[^\s]+`)
	quotedRe    = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	dirKeywords = []string{"desktop", "downloads", "documents", "home", "trash"}
)

// Extract fills intent-appropriate entities from the raw segment text,
// trying quoted strings first (most explicit), then filenames, URLs,
// directory keywords, and known app names.
func Extract(intent, segment string) map[string]string {
	entities := map[string]string{}

	if m := quotedRe.FindStringSubmatch(segment); m != nil {
		value := m[1]
		if value == "" {
			value = m[2]
		}
		entities["quoted"] = value
	}

	switch intent {
	case "delete_file", "create_file", "move_file", "copy_file":
		if f := filenameRe.FindString(segment); f != "" {
			entities["filename"] = f
		}
		for _, dir := range dirKeywords {
			if strings.Contains(strings.ToLower(segment), dir) {
				entities["directory"] = dir
				break
			}
		}
	case "download_file", "search_web":
		if u := urlRe.FindString(segment); u != "" {
			entities["url"] = u
		}
	case "launch_app", "close_app":
		if app := matchKnownApp(strings.ToLower(segment)); app != "" {
			entities["app"] = app
		}
	}

	return entities
}

// fuzzyDistanceBudget caps how far matchKnownApp's fuzzy fallback will
// reach before giving up rather than guessing an unrelated app name.
const fuzzyDistanceBudget = 2

// matchKnownApp resolves a segment to one of taxonomy.KnownApps. An exact
// substring match wins outright; otherwise each word is fuzzy-ranked
// against the known names so a slightly misspelled one ("chrom", "fierfox")
// still resolves instead of silently dropping the entity. Grounded on
// opal-lang-opal's planner.findClosestMatch, which ranks candidates the
// same way for its own closest-match lookup.
func matchKnownApp(lower string) string {
	for app := range taxonomy.KnownApps {
		if strings.Contains(lower, app) {
			return app
		}
	}

	candidates := make([]string, 0, len(taxonomy.KnownApps))
	for app := range taxonomy.KnownApps {
		candidates = append(candidates, app)
	}

	for _, word := range strings.Fields(lower) {
		ranks := fuzzy.RankFindFold(word, candidates)
		if len(ranks) > 0 && ranks[0].Distance <= fuzzyDistanceBudget {
			return ranks[0].Target
		}
	}
	return ""
}
