package watchdog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssess_HealthyWithNoSignals(t *testing.T) {
	w := New()
	w.RecordCommand()
	health, findings := w.Assess()
	assert.Equal(t, HealthHealthy, health)
	assert.Empty(t, findings)
}

func TestAssess_HighMalformedRateEscalatesToCritical(t *testing.T) {
	w := New()
	for i := 0; i < 10; i++ {
		w.RecordAdvisorOutput(i < 4) // 40% malformed
	}
	health, findings := w.Assess()
	assert.Equal(t, HealthCritical, health)
	assert.NotEmpty(t, findings)
}

func TestAssess_ModerateMalformedRateIsWarningOnly(t *testing.T) {
	w := New()
	for i := 0; i < 10; i++ {
		w.RecordAdvisorOutput(i < 2) // 20% malformed
	}
	health, _ := w.Assess()
	assert.Equal(t, HealthWarning, health)
}

func TestAssess_AllRollbacksPartialIsCritical(t *testing.T) {
	w := New()
	w.RecordRollback(true)
	w.RecordRollback(true)
	health, _ := w.Assess()
	assert.Equal(t, HealthCritical, health)
}

func TestAssess_KillSwitchTripIsWarning(t *testing.T) {
	w := New()
	w.RecordKillSwitchTrip()
	health, findings := w.Assess()
	assert.Equal(t, HealthWarning, health)
	assert.Len(t, findings, 1)
}

func TestCollector_RecordLatency_ComputesRunningAverage(t *testing.T) {
	c := NewCollector(nil)
	c.RecordLatency("semantic", 10)
	c.RecordLatency("semantic", 20)
	snap := c.Snapshot()
	assert.InDelta(t, 15.0, snap.AvgSemanticMS, 0.001)
}

func TestCollector_Increment_IgnoresUnknownCounter(t *testing.T) {
	c := NewCollector(nil)
	c.Increment("not_a_real_counter")
	snap := c.Snapshot()
	assert.NotContains(t, snap.Counters, "not_a_real_counter")
}

func TestCollector_IncrementDecisionSource_DefaultsUnknownForEmpty(t *testing.T) {
	c := NewCollector(nil)
	c.IncrementDecisionSource("")
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.DecisionSources["unknown"])
}
