package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveClarification_ValidAnswerMergesAndCapsConfidence(t *testing.T) {
	pending := Pending{Intent: "delete_file", Parameter: "filename", Entities: map[string]string{}, Confidence: 0.8}
	entities, confidence, resolved, _, err := ResolveClarification(pending, "report.docx")
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Equal(t, "report.docx", entities["filename"])
	assert.Equal(t, 0.90, confidence)
}

func TestResolveClarification_RejectsTooShortPathAnswer(t *testing.T) {
	pending := Pending{Intent: "delete_file", Parameter: "filename", Confidence: 0.8}
	_, _, resolved, updated, err := ResolveClarification(pending, "a")
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Equal(t, 1, updated.Attempts)
}

func TestResolveClarification_RejectsForbiddenCharacters(t *testing.T) {
	pending := Pending{Intent: "delete_file", Parameter: "filename", Confidence: 0.8}
	_, _, resolved, _, err := ResolveClarification(pending, `bad<name>.txt`)
	require.NoError(t, err)
	assert.False(t, resolved)
}

func TestResolveClarification_AbortsAfterThreeInvalidAttempts(t *testing.T) {
	pending := Pending{Intent: "delete_file", Parameter: "filename", Confidence: 0.8, Attempts: 2}
	_, _, resolved, _, err := ResolveClarification(pending, "")
	assert.False(t, resolved)
	assert.ErrorIs(t, err, ErrClarificationAborted)
}

func TestResolveClarification_FreeformParameterSkipsPathChecks(t *testing.T) {
	pending := Pending{Intent: "search_web", Parameter: "query", Confidence: 0.7}
	_, _, resolved, _, err := ResolveClarification(pending, "x")
	require.NoError(t, err)
	assert.True(t, resolved)
}
