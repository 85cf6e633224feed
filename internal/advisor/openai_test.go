package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRecommendation_ValidJSON(t *testing.T) {
	rec, ok := parseRecommendation(`{"intent":"complex_goal","confidence":0.8,"needs_confirmation":true,"reasoning":"multi-step request"}`)
	assert.True(t, ok)
	assert.Equal(t, "complex_goal", rec.Intent)
	assert.Equal(t, 0.8, rec.Confidence)
	assert.True(t, rec.NeedsConfirmation)
}

func TestParseRecommendation_NotJSONIsMalformed(t *testing.T) {
	_, ok := parseRecommendation("sure, I can help with that!")
	assert.False(t, ok)
}

func TestParseRecommendation_EmptyIntentIsMalformed(t *testing.T) {
	_, ok := parseRecommendation(`{"intent":"","confidence":0.5}`)
	assert.False(t, ok)
}

func TestParseRecommendation_OutOfRangeConfidenceIsMalformed(t *testing.T) {
	_, ok := parseRecommendation(`{"intent":"launch_app","confidence":1.5}`)
	assert.False(t, ok)
}
