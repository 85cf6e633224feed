package classify

import "strings"

// introspectionCommands are the literal diagnostic keywords of Stage A
// (spec.md §4.3). A match bypasses every later stage and every counter.
var introspectionCommands = map[string]bool{
	"status": true, "pending": true, "last_intent": true,
	"explain": true, "metrics": true,
}

// Introspect checks whether input is (after lowercasing and trimming) one
// of the literal diagnostic commands. ok is true only for an exact match.
func Introspect(input string) (command string, ok bool) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if introspectionCommands[trimmed] {
		return trimmed, true
	}
	return "", false
}
