// Package normalize applies deterministic text transforms to a raw user
// utterance before classification, guarding against accidental
// autocorrection toward destructive commands.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// destructiveKeywords are the canonical destructive verbs the guard protects.
var destructiveKeywords = []string{
	"delete", "remove", "format", "wipe", "shutdown", "erase",
	"overwrite", "kill", "terminate", "destroy", "purge",
}

// nearMissTable lists explicit misspellings that must always be flagged as
// dangerous even when they happen to fall outside edit-distance 1 of the
// canonical keyword (e.g. transpositions, doubled letters).
var nearMissTable = map[string]string{
	"deleet":    "delete",
	"delate":    "delete",
	"remmove":   "remove",
	"formmat":   "format",
	"shutdwon":  "shutdown",
	"tearminate": "terminate",
}

// typoDict is the exact-match safe-keyword typo dictionary, consulted only
// after the destructive guard has cleared the token.
var typoDict = map[string]string{
	"teh":    "the",
	"fiel":   "file",
	"flie":   "file",
	"opne":   "open",
	"craete": "create",
	"mkae":   "make",
}

// safeKeywords are verbs eligible for edit-distance-1 correction.
var safeKeywords = []string{
	"open", "create", "close", "launch", "show", "list", "copy", "move",
	"rename", "save", "find", "search", "run", "start", "stop",
}

// exclusionList holds common English words that sit within edit-distance 1
// of a safe verb but must never be "corrected" (e.g. "how" -> "show").
var exclusionList = map[string]bool{
	"how": true, "who": true, "row": true, "low": true,
	"cop": true, "cap": true, "lose": true, "nose": true,
}

// connectorMap normalizes multi-word connectors into their canonical spaced form.
var connectorMap = map[string]string{
	"andthen": "and then",
	"an then": "and then",
	"nd then": "and then",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	repeatRunRe  = regexp.MustCompile(`([A-Za-z])\1{2,}`)
	quotedRe     = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	numericRe    = regexp.MustCompile(`^[0-9]+$`)
)

// Result carries the outcome of normalizing one utterance.
type Result struct {
	Normalized             string
	WasModified            bool
	DangerousTokenDetected string
	Delta                  string
	ModificationCount      int
}

// Normalize runs the full conservative transform pipeline over raw input.
func Normalize(raw string) Result {
	original := raw
	text := collapseWhitespace(raw)

	text = compressLetterRuns(text)

	placeholders, text := extractQuoted(text)

	tokens := strings.Fields(text)
	modCount := 0
	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		if skipToken(lower) {
			continue
		}

		if canonical, dangerous := destructiveGuard(lower); dangerous {
			return Result{
				Normalized:             original,
				WasModified:            false,
				DangerousTokenDetected: canonical,
			}
		}

		if fixed, ok := typoDict[lower]; ok && fixed != lower {
			tokens[i] = fixed
			modCount++
			continue
		}

		if fixed, ok := editDistanceCorrect(lower); ok && fixed != lower {
			tokens[i] = fixed
			modCount++
		}
	}

	text = strings.Join(tokens, " ")
	text = applyConnectors(text)
	text = restoreQuoted(text, placeholders)

	return Result{
		Normalized:        text,
		WasModified:       modCount > 0 || text != original,
		Delta:             delta(original, text),
		ModificationCount: modCount,
	}
}

// destructiveGuard reports whether tok is within edit-distance 1 of a
// destructive keyword (and is not an exact match), or appears in the
// explicit near-miss table. The destructive set and near-miss table are
// always consulted before any safe-correction table.
func destructiveGuard(tok string) (canonical string, dangerous bool) {
	if canon, ok := nearMissTable[tok]; ok {
		return canon, true
	}
	for _, kw := range destructiveKeywords {
		if tok == kw {
			return "", false
		}
		if levenshtein.ComputeDistance(tok, kw) == 1 {
			return kw, true
		}
	}
	return "", false
}

// editDistanceCorrect corrects tok toward a safe keyword if it sits at
// edit-distance 1 and is not an excluded common word.
func editDistanceCorrect(tok string) (string, bool) {
	if exclusionList[tok] {
		return tok, false
	}
	for _, kw := range safeKeywords {
		if tok == kw {
			return tok, false
		}
		if levenshtein.ComputeDistance(tok, kw) == 1 {
			return kw, true
		}
	}
	return tok, false
}

// skipToken reports whether a token should bypass correction entirely:
// path-like tokens and purely numeric tokens.
func skipToken(tok string) bool {
	if strings.ContainsAny(tok, "./\\") {
		return true
	}
	return numericRe.MatchString(tok)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// compressLetterRuns collapses runs of 3+ identical alphabetic characters to
// 2 (e.g. "nooo" -> "noo"); digit runs are left untouched by the regex's
// letter class.
func compressLetterRuns(s string) string {
	return repeatRunRe.ReplaceAllString(s, "$1$1")
}

// extractQuoted pulls quoted substrings out into placeholders so the rest of
// the pipeline never rewrites their contents.
func extractQuoted(s string) ([]string, string) {
	var placeholders []string
	out := quotedRe.ReplaceAllStringFunc(s, func(m string) string {
		placeholders = append(placeholders, m)
		return "\x00Q" + strconv.Itoa(len(placeholders)-1) + "\x00"
	})
	return placeholders, out
}

func restoreQuoted(s string, placeholders []string) string {
	for i, p := range placeholders {
		s = strings.ReplaceAll(s, "\x00Q"+strconv.Itoa(i)+"\x00", p)
	}
	return s
}

func applyConnectors(s string) string {
	for from, to := range connectorMap {
		s = strings.ReplaceAll(s, from, to)
	}
	return s
}

func delta(before, after string) string {
	if before == after {
		return ""
	}
	return before + " -> " + after
}

