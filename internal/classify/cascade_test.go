package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lyra/internal/types"
)

func TestCascade_Run_IntrospectionBypassesEverything(t *testing.T) {
	c := &Cascade{}
	outcome, err := c.Run(context.Background(), "status", nil, PriorTurn{}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "status", outcome.Introspection)
}

func TestCascade_Run_PendingClarificationResolvesFirst(t *testing.T) {
	c := &Cascade{}
	pending := &Pending{Intent: "delete_file", Parameter: "filename", Confidence: 0.6}
	outcome, err := c.Run(context.Background(), "report.docx", pending, PriorTurn{}, 1.0)
	require.NoError(t, err)
	require.NotNil(t, outcome.Command)
	assert.Equal(t, "delete_file", outcome.Command.Intent)
	assert.Equal(t, types.SourceClarification, outcome.Command.DecisionSource)
}

func TestCascade_Run_RefinementWinsOverSemanticStage(t *testing.T) {
	c := &Cascade{}
	prior := PriorTurn{Intent: "create_file", Entities: map[string]string{"filename": "draft.txt"}, Confidence: 0.9}
	outcome, err := c.Run(context.Background(), "rename to final.txt", nil, prior, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "create_file", outcome.Command.Intent)
	assert.Equal(t, "final.txt", outcome.Command.Entities["filename"])
	assert.Equal(t, types.SourceRefinement, outcome.Command.DecisionSource)
}

func TestCascade_Run_SemanticStageHandlesPlainCommand(t *testing.T) {
	c := &Cascade{}
	outcome, err := c.Run(context.Background(), "delete report.docx", nil, PriorTurn{}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "delete_file", outcome.Command.Intent)
	assert.Equal(t, types.SourceSemantic, outcome.Command.DecisionSource)
}

func TestCascade_Run_MissingRequiredParamProducesClarification(t *testing.T) {
	c := &Cascade{}
	outcome, err := c.Run(context.Background(), "delete the file", nil, PriorTurn{}, 1.0)
	require.NoError(t, err)
	require.NotNil(t, outcome.Clarification)
	assert.Equal(t, "filename", outcome.Clarification.Parameter)
}

func TestCascade_Run_UnrecognizedInputReturnsUnknown(t *testing.T) {
	c := &Cascade{}
	outcome, err := c.Run(context.Background(), "asdkjhaskjdhaskjdh qweoiqwoe", nil, PriorTurn{}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "unknown", outcome.Command.Intent)
}
