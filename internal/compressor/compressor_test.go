package compressor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lyra/internal/types"
)

func turns(n int) []types.Turn {
	out := make([]types.Turn, n)
	for i := range out {
		out[i] = types.Turn{Role: "user", Content: "turn"}
	}
	return out
}

func TestCompress_NoOpBelowThreshold(t *testing.T) {
	history := turns(5)
	result, err := Compress(DefaultConfig(), history, RuleBasedSummarizer{})
	require.NoError(t, err)
	assert.Equal(t, history, result)
}

func TestCompress_PreservesSafetyMarkedTurns(t *testing.T) {
	history := turns(25)
	history[2].Metadata = map[string]string{"risk_level": "HIGH"}

	result, err := Compress(DefaultConfig(), history, RuleBasedSummarizer{})
	require.NoError(t, err)

	found := false
	for _, tu := range result {
		if tu.Metadata["risk_level"] == "HIGH" {
			found = true
		}
	}
	assert.True(t, found, "HIGH risk turn must survive compression")
}

func TestCompress_KeepsMostRecentTurnsVerbatim(t *testing.T) {
	cfg := Config{TriggerTurnCount: 10, PreserveCount: 3}
	history := turns(12)
	history[11].Content = "most-recent"

	result, err := Compress(cfg, history, RuleBasedSummarizer{})
	require.NoError(t, err)
	assert.Equal(t, "most-recent", result[len(result)-1].Content)
}

func TestCompress_InsertsSingleSummaryTurn(t *testing.T) {
	cfg := Config{TriggerTurnCount: 10, PreserveCount: 3}
	history := turns(12)

	result, err := Compress(cfg, history, RuleBasedSummarizer{})
	require.NoError(t, err)

	summaryCount := 0
	for _, tu := range result {
		if tu.Metadata["compressed"] == "true" {
			summaryCount++
		}
	}
	assert.Equal(t, 1, summaryCount)
}

func TestRuleBasedSummarizer_ExtractsUniqueIntents(t *testing.T) {
	history := []types.Turn{
		{Metadata: map[string]string{"intent": "create_file"}},
		{Metadata: map[string]string{"intent": "create_file"}},
		{Metadata: map[string]string{"intent": "delete_file"}},
	}
	summary, err := RuleBasedSummarizer{}.Summarize(history)
	require.NoError(t, err)
	assert.Contains(t, summary, "create_file")
	assert.Contains(t, summary, "delete_file")
}
