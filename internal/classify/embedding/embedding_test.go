package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEncoder struct {
	vectors map[string][]float64
}

func (f *fakeEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	return f.vectors[text], nil
}

func TestClassify_HighConfidenceWinsOutright(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"delete my report": {1, 0}}}
	clf := NewClassifier(enc, DefaultThresholds(), []IntentVector{
		{Intent: "delete_file", Vector: []float64{1, 0}},
		{Intent: "launch_app", Vector: []float64{0, 1}},
	})
	result, err := clf.Classify(context.Background(), "delete my report")
	require.NoError(t, err)
	assert.Equal(t, "delete_file", result.Intent)
	assert.False(t, result.RequiresEscalation)
}

func TestClassify_MidBandWinsButEscalates(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"kinda delete thing": {0.6, 0.8}}}
	clf := NewClassifier(enc, DefaultThresholds(), []IntentVector{
		{Intent: "delete_file", Vector: []float64{1, 0}},
	})
	result, err := clf.Classify(context.Background(), "kinda delete thing")
	require.NoError(t, err)
	assert.Equal(t, "delete_file", result.Intent)
	assert.True(t, result.RequiresEscalation)
	assert.False(t, result.Unknown)
}

func TestClassify_BelowLowReturnsUnknown(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"xyz": {-1, 0}}}
	clf := NewClassifier(enc, DefaultThresholds(), []IntentVector{
		{Intent: "delete_file", Vector: []float64{1, 0}},
	})
	result, err := clf.Classify(context.Background(), "xyz")
	require.NoError(t, err)
	assert.True(t, result.Unknown)
	assert.True(t, result.RequiresEscalation)
}
