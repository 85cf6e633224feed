package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefine_ChangeNameToMutatesFilename(t *testing.T) {
	refined, ok := Refine("create_file", map[string]string{"filename": "draft.txt"}, 0.9, "actually change name to final.txt")
	require.True(t, ok)
	assert.Equal(t, "create_file", refined.Intent)
	assert.Equal(t, "final.txt", refined.Entities["filename"])
	assert.InDelta(t, 0.85, refined.Confidence, 0.001)
}

func TestRefine_RenameToMatchesWithoutPrefix(t *testing.T) {
	refined, ok := Refine("create_file", map[string]string{"filename": "draft.txt"}, 0.8, "rename to notes.txt")
	require.True(t, ok)
	assert.Equal(t, "notes.txt", refined.Entities["filename"])
}

func TestRefine_NoPriorIntentNeverMatches(t *testing.T) {
	_, ok := Refine("", nil, 0.8, "rename to notes.txt")
	assert.False(t, ok)
}

func TestRefine_UnrelatedUtteranceDoesNotMatch(t *testing.T) {
	_, ok := Refine("create_file", map[string]string{"filename": "draft.txt"}, 0.8, "launch spotify")
	assert.False(t, ok)
}

func TestRefine_MakeItShorterTrimsFilename(t *testing.T) {
	refined, ok := Refine("create_file", map[string]string{"filename": "a_very_long_filename_indeed.txt"}, 0.9, "make it shorter")
	require.True(t, ok)
	assert.LessOrEqual(t, len(refined.Entities["filename"]), 16)
}
