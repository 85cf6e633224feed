package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lyra/internal/capability"
	"github.com/boshu2/lyra/internal/plan"
	"github.com/boshu2/lyra/internal/risk"
	"github.com/boshu2/lyra/internal/types"
)

func registryWithCapability(t *testing.T, intent string, maxRisk types.RiskLevel) *capability.Registry {
	t.Helper()
	r := capability.NewRegistry()
	require.NoError(t, r.RegisterCapability(capability.Capability{
		Name: "test-cap", AllowedIntents: []string{intent}, MaxRisk: maxRisk,
	}))
	r.Lock()
	return r
}

func frozenPlanWithRisk(t *testing.T, level types.RiskLevel) plan.Frozen {
	t.Helper()
	b := plan.NewBuilder()
	require.NoError(t, b.AddStep(plan.Step{StepID: "s1", StepRisk: level}))
	f, err := b.Freeze()
	require.NoError(t, err)
	return f
}

func noSignals(plan.Step) risk.Signals { return risk.Signals{} }

type fakeSink struct {
	records []AuditRecord
}

func (f *fakeSink) Append(ctx context.Context, entry AuditRecord) error {
	f.records = append(f.records, entry)
	return nil
}

func TestGateway_Evaluate_DeniesWhenIntentHasNoCapability(t *testing.T) {
	caps := capability.NewRegistry()
	caps.Lock()
	sink := &fakeSink{}
	g := New(caps, DefaultTrustThresholds(), noSignals, nil, sink)

	decision := g.Evaluate(context.Background(), "unregistered_intent", 1.0, frozenPlanWithRisk(t, types.RiskLow))

	assert.False(t, decision.Allowed)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "denied", sink.records[0].Outcome)
}

func TestGateway_Evaluate_AllowsLowRiskWithinCapabilityAndTrust(t *testing.T) {
	caps := registryWithCapability(t, "open_app", types.RiskMedium)
	sink := &fakeSink{}
	g := New(caps, DefaultTrustThresholds(), noSignals, nil, sink)

	decision := g.Evaluate(context.Background(), "open_app", 1.0, frozenPlanWithRisk(t, types.RiskLow))

	assert.True(t, decision.Allowed)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "allowed", sink.records[0].Outcome)
}

func TestGateway_Evaluate_DeniesWhenRiskExceedsCapabilityCeiling(t *testing.T) {
	caps := registryWithCapability(t, "delete_file", types.RiskLow)
	g := New(caps, DefaultTrustThresholds(), noSignals, nil, nil)

	decision := g.Evaluate(context.Background(), "delete_file", 1.0, frozenPlanWithRisk(t, types.RiskHigh))

	assert.False(t, decision.Allowed)
}

func TestGateway_Evaluate_DeniesWhenTrustBelowThreshold(t *testing.T) {
	caps := registryWithCapability(t, "delete_file", types.RiskHigh)
	g := New(caps, DefaultTrustThresholds(), noSignals, nil, nil)

	decision := g.Evaluate(context.Background(), "delete_file", 0.1, frozenPlanWithRisk(t, types.RiskHigh))

	assert.False(t, decision.Allowed)
}

func TestGateway_Evaluate_RequiresConfirmationForHighRiskAndHonorsDenial(t *testing.T) {
	caps := registryWithCapability(t, "delete_file", types.RiskHigh)
	g := New(caps, DefaultTrustThresholds(), noSignals, func(context.Context, plan.Frozen, risk.Report) bool { return false }, nil)

	decision := g.Evaluate(context.Background(), "delete_file", 1.0, frozenPlanWithRisk(t, types.RiskHigh))

	assert.False(t, decision.Allowed)
}

func TestGateway_Evaluate_ConfirmedHighRiskIsAllowed(t *testing.T) {
	caps := registryWithCapability(t, "delete_file", types.RiskHigh)
	g := New(caps, DefaultTrustThresholds(), noSignals, func(context.Context, plan.Frozen, risk.Report) bool { return true }, nil)

	decision := g.Evaluate(context.Background(), "delete_file", 1.0, frozenPlanWithRisk(t, types.RiskHigh))

	assert.True(t, decision.Allowed)
}
