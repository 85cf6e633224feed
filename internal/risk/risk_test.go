package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lyra/internal/plan"
	"github.com/boshu2/lyra/internal/types"
)

func frozenWithSteps(t *testing.T, steps ...plan.Step) plan.Frozen {
	t.Helper()
	b := plan.NewBuilder()
	for _, s := range steps {
		require.NoError(t, b.AddStep(s))
	}
	frozen, err := b.Freeze()
	require.NoError(t, err)
	return frozen
}

func TestSimulate_TwoHighRiskStepsEscalateToCritical(t *testing.T) {
	frozen := frozenWithSteps(t,
		plan.Step{StepID: "s1", StepRisk: types.RiskHigh},
		plan.Step{StepID: "s2", StepRisk: types.RiskHigh},
	)
	report := Simulate(frozen, func(plan.Step) Signals { return Signals{} })
	assert.Equal(t, types.RiskCritical, report.CumulativeRisk)
}

func TestSimulate_MultipleDestructiveStepsEscalateToCritical(t *testing.T) {
	frozen := frozenWithSteps(t,
		plan.Step{StepID: "s1", StepRisk: types.RiskMedium},
		plan.Step{StepID: "s2", StepRisk: types.RiskMedium},
	)
	report := Simulate(frozen, func(plan.Step) Signals { return Signals{Destructive: true} })
	assert.Equal(t, types.RiskCritical, report.CumulativeRisk)
}

func TestSimulate_FileAndNetworkMixRequiresConfirmationAndAtLeastHigh(t *testing.T) {
	frozen := frozenWithSteps(t, plan.Step{StepID: "s1", StepRisk: types.RiskLow})
	report := Simulate(frozen, func(plan.Step) Signals { return Signals{FileOp: true, Network: true} })
	assert.True(t, report.RequiresConfirmation)
	assert.False(t, report.CumulativeRisk.Less(types.RiskHigh))
}

func TestSimulate_IrreversibleStepRequiresConfirmation(t *testing.T) {
	frozen := frozenWithSteps(t, plan.Step{StepID: "s1", StepRisk: types.RiskLow})
	report := Simulate(frozen, func(plan.Step) Signals { return Signals{Irreversible: true} })
	assert.True(t, report.RequiresConfirmation)
}

func TestSimulate_NoSignalsKeepsPlanRiskAsIs(t *testing.T) {
	frozen := frozenWithSteps(t, plan.Step{StepID: "s1", StepRisk: types.RiskLow})
	report := Simulate(frozen, func(plan.Step) Signals { return Signals{} })
	assert.Equal(t, types.RiskLow, report.CumulativeRisk)
	assert.False(t, report.RequiresConfirmation)
	assert.Empty(t, report.Factors)
}
