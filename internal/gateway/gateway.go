// Package gateway implements the Execution Gateway of spec.md §4.7: the
// single choke point a frozen plan must pass through before any step
// runs. It checks the caller's trust score against the plan's risk via a
// permission model grounded on original_source's permission_model.py,
// re-simulates risk immediately before execution (since session state may
// have changed since planning), resolves any outstanding confirmation
// requirement, and records exactly one audit entry per attempt regardless
// of outcome.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/boshu2/lyra/internal/capability"
	"github.com/boshu2/lyra/internal/plan"
	"github.com/boshu2/lyra/internal/risk"
	"github.com/boshu2/lyra/internal/types"
)

// Sentinel errors.
var (
	ErrTrustTooLow        = errors.New("caller trust score insufficient for plan risk")
	ErrConfirmationDenied = errors.New("required confirmation was denied")
	ErrCapabilityDenied   = errors.New("plan's capability/risk check failed")
)

// TrustThresholds maps a minimum trust score to each risk level, mirroring
// original_source's permission_model trust-tier table.
type TrustThresholds struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// DefaultTrustThresholds are the out-of-the-box tiers: LOW commands need
// almost no standing trust, CRITICAL ones need near-total trust.
func DefaultTrustThresholds() TrustThresholds {
	return TrustThresholds{Low: 0.0, Medium: 0.25, High: 0.6, Critical: 0.9}
}

func (t TrustThresholds) minimumFor(level types.RiskLevel) float64 {
	switch level {
	case types.RiskLow:
		return t.Low
	case types.RiskMedium:
		return t.Medium
	case types.RiskHigh:
		return t.High
	default:
		return t.Critical
	}
}

// Confirmer resolves an outstanding human confirmation requirement. It
// returns true if the human approved.
type Confirmer func(ctx context.Context, frozen plan.Frozen, report risk.Report) bool

// AuditSink receives one audit entry per gateway attempt. internal/ledger
// implements this.
type AuditSink interface {
	Append(ctx context.Context, entry AuditRecord) error
}

// AuditRecord is the minimal shape the gateway hands the ledger; the
// ledger package owns hash-chaining and persistence. Field names echo
// spec.md §3's Audit Entry: plan_id, deterministic_hash, simulation_result,
// final_state, trace_id.
type AuditRecord struct {
	PlanID            string
	TraceID           string
	Intent            string
	RiskLevel         types.RiskLevel
	DeterministicHash string
	SimulationResult  string
	Outcome           string
	Reason            string
	TrustScore        float64
}

// Gateway is the single entry point plans must pass through before
// execution.
type Gateway struct {
	capabilities *capability.Registry
	thresholds   TrustThresholds
	confirm      Confirmer
	audit        AuditSink
	classify     risk.ClassifyFunc
}

// New constructs a Gateway. confirm and audit may be nil in tests; a nil
// confirm always denies, a nil audit is a no-op.
func New(capabilities *capability.Registry, thresholds TrustThresholds, classify risk.ClassifyFunc, confirm Confirmer, audit AuditSink) *Gateway {
	return &Gateway{capabilities: capabilities, thresholds: thresholds, confirm: confirm, audit: audit, classify: classify}
}

// Decision is the gateway's verdict for one attempt.
type Decision struct {
	Allowed bool
	Report  risk.Report
	Reason  string
}

// Evaluate runs the full gateway sequence for one plan attempt: capability
// check, trust check, risk re-simulation, confirmation resolution, and
// audit recording. Exactly one AuditRecord is appended regardless of the
// outcome.
func (g *Gateway) Evaluate(ctx context.Context, intent string, trustScore float64, frozen plan.Frozen) Decision {
	report := risk.Simulate(frozen, g.classify)

	decision := Decision{Report: report}

	if err := g.capabilities.ValidateRisk(intent, report.CumulativeRisk); err != nil {
		decision.Reason = fmt.Sprintf("%v", err)
		g.recordAudit(ctx, frozen, intent, report, "denied", decision.Reason, trustScore)
		return decision
	}

	if trustScore < g.thresholds.minimumFor(report.CumulativeRisk) {
		decision.Reason = ErrTrustTooLow.Error()
		g.recordAudit(ctx, frozen, intent, report, "denied", decision.Reason, trustScore)
		return decision
	}

	if report.RequiresConfirmation {
		approved := false
		if g.confirm != nil {
			approved = g.confirm(ctx, frozen, report)
		}
		if !approved {
			decision.Reason = ErrConfirmationDenied.Error()
			g.recordAudit(ctx, frozen, intent, report, "denied", decision.Reason, trustScore)
			return decision
		}
	}

	decision.Allowed = true
	g.recordAudit(ctx, frozen, intent, report, "allowed", "", trustScore)
	return decision
}

func (g *Gateway) recordAudit(ctx context.Context, frozen plan.Frozen, intent string, report risk.Report, outcome, reason string, trustScore float64) {
	if g.audit == nil {
		return
	}
	_ = g.audit.Append(ctx, AuditRecord{
		PlanID:            frozen.PlanID(),
		TraceID:           uuid.NewString(),
		Intent:            intent,
		RiskLevel:         report.CumulativeRisk,
		DeterministicHash: frozen.DeterministicHash(),
		SimulationResult:  outcome,
		Outcome:           outcome,
		Reason:            reason,
		TrustScore:        trustScore,
	})
}
