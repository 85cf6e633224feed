// Package conversation shapes polite or casual phrasing into the verb form
// the classification cascade expects, without altering the user's intent.
package conversation

import (
	"regexp"
	"strings"
)

// Tone is the dominant emotional register detected in an utterance.
type Tone string

const (
	ToneUrgent     Tone = "urgent"
	ToneFrustrated Tone = "frustrated"
	TonePolite     Tone = "polite"
	ToneCasual     Tone = "casual"
	ToneNeutral    Tone = "neutral"
)

// toneKeywords is checked in priority order: urgent > frustrated > polite >
// casual > neutral. The first tone with any matching token wins.
var toneKeywords = []struct {
	tone     Tone
	keywords []string
}{
	{ToneUrgent, []string{"urgent", "asap", "immediately", "now", "emergency"}},
	{ToneFrustrated, []string{"ugh", "frustrated", "annoying", "again", "seriously"}},
	{TonePolite, []string{"please", "kindly", "thanks", "thank", "appreciate"}},
	{ToneCasual, []string{"hey", "yo", "gonna", "wanna", "kinda"}},
}

// fillerPhrases are stripped from the front of an utterance whenever another
// token follows them; that token is not checked against any verb list.
var fillerPhrases = []string{
	"please", "can you", "could you", "would you", "i want to",
	"i need to", "i'd like to",
}

// destructiveSynonyms never get a safe-synonym mapping; finding one at the
// first actionable token position forces clarification instead.
var destructiveSynonyms = map[string]bool{
	"nuke": true, "wipe": true, "erase": true, "kill": true, "purge": true,
	"obliterate": true, "annihilate": true, "trash": true, "zap": true,
}

// twoWordSynonyms is checked before singleWordSynonyms, per spec §4.2.
var twoWordSynonyms = map[string]string{
	"open up": "open",
}

var singleWordSynonyms = map[string]string{
	"make":  "create",
	"start": "launch",
	"boot":  "launch",
	"shut":  "close",
}

var modalVerbs = map[string]bool{
	"would": true, "could": true, "might": true, "should": true, "may": true,
}

var quotedRe = regexp.MustCompile(`"[^"]*"|'[^']*'`)

// Result carries the shaped utterance and the signals downstream stages
// consult.
type Result struct {
	Shaped              string
	ClarificationNeeded bool
	Tone                Tone
	IndirectPhrasing    bool
	ConfidenceModifier  float64
	FillerStripped      bool
}

// Shape strips filler, maps safe synonyms at the first actionable token,
// and detects tone and indirectness. It never rewrites the user's intent:
// a destructive synonym at the verb position always forces clarification
// rather than a mapping.
func Shape(input string) Result {
	placeholders, text := extractQuoted(input)

	lower := strings.ToLower(text)
	tone := detectTone(lower)

	fillerStripped, text := stripFiller(text)

	tokens := strings.Fields(text)
	clarification := false
	if len(tokens) > 0 {
		first := strings.ToLower(tokens[0])
		if destructiveSynonyms[first] {
			clarification = true
		} else {
			tokens = mapSynonymAtFirstPosition(tokens)
		}
	}
	text = strings.Join(tokens, " ")
	text = restoreQuoted(text, placeholders)

	indirect := fillerStripped || containsModal(lower)
	modifier := 1.0
	if indirect {
		modifier = 0.95
	}

	return Result{
		Shaped:              text,
		ClarificationNeeded: clarification,
		Tone:                tone,
		IndirectPhrasing:    indirect,
		ConfidenceModifier:  modifier,
		FillerStripped:      fillerStripped,
	}
}

// stripFiller removes a leading filler phrase when it precedes another
// token, whatever that token is.
func stripFiller(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, phrase := range fillerPhrases {
		if strings.HasPrefix(lower, phrase+" ") {
			return true, strings.TrimSpace(text[len(phrase):])
		}
	}
	return false, text
}

// mapSynonymAtFirstPosition maps a safe synonym only at the first token
// position, checking two-word synonyms before single-word ones.
func mapSynonymAtFirstPosition(tokens []string) []string {
	if len(tokens) >= 2 {
		twoWord := strings.ToLower(tokens[0] + " " + tokens[1])
		if mapped, ok := twoWordSynonyms[twoWord]; ok {
			return append([]string{mapped}, tokens[2:]...)
		}
	}
	first := strings.ToLower(tokens[0])
	if mapped, ok := singleWordSynonyms[first]; ok {
		tokens[0] = mapped
	}
	return tokens
}

func detectTone(lower string) Tone {
	tokens := strings.Fields(lower)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	for _, tk := range toneKeywords {
		for _, kw := range tk.keywords {
			if tokenSet[kw] {
				return tk.tone
			}
		}
	}
	return ToneNeutral
}

func containsModal(lower string) bool {
	for _, tok := range strings.Fields(lower) {
		if modalVerbs[tok] {
			return true
		}
	}
	return false
}

func extractQuoted(s string) ([]string, string) {
	var placeholders []string
	out := quotedRe.ReplaceAllStringFunc(s, func(m string) string {
		placeholders = append(placeholders, m)
		return "\x00Q\x00"
	})
	return placeholders, out
}

func restoreQuoted(s string, placeholders []string) string {
	for _, p := range placeholders {
		s = strings.Replace(s, "\x00Q\x00", p, 1)
	}
	return s
}
