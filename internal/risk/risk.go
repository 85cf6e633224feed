// Package risk implements the Risk Simulator of spec.md §4.6: it walks a
// frozen plan and computes a compound risk assessment by applying a fixed
// set of escalation rules cumulatively, in the same finding-aggregation
// style the teacher's vibecheck package used to classify commit-timeline
// health (rules independently append findings, then a single classifier
// derives the overall verdict).
package risk

import (
	"fmt"

	"github.com/boshu2/lyra/internal/plan"
	"github.com/boshu2/lyra/internal/types"
)

// Factor is one explanatory risk-escalation reason, analogous to the
// teacher's vibecheck.Finding.
type Factor struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Report is the Risk Simulator's verdict for one frozen plan.
type Report struct {
	CumulativeRisk     types.RiskLevel `json:"cumulative_risk"`
	RequiresConfirmation bool          `json:"requires_confirmation"`
	RequiresSandbox    bool            `json:"requires_sandbox"`
	RollbackRequired   bool            `json:"rollback_required"`
	Factors            []Factor        `json:"factors"`
}

// Signals carries the per-step boolean inputs the simulator rules consult.
// A ClassifyFunc derives them for each step; the simulator itself only
// needs the boolean signals spec.md §4.6 enumerates.
type Signals struct {
	Destructive   bool
	Network       bool
	FileOp        bool
	Irreversible  bool
	SandboxNeeded bool
}

// ClassifyFunc maps a plan step to the boolean signals the simulator rules
// need. The execution gateway supplies an implementation backed by the
// safety registry.
type ClassifyFunc func(step plan.Step) Signals

// Simulate computes the compound risk assessment for a frozen plan.
// Rules are applied cumulatively, in the order spec.md §4.6 lists them.
func Simulate(p plan.Frozen, classify ClassifyFunc) Report {
	steps := p.Steps()

	var (
		destructiveCount int
		highCount        int
		irreversible     bool
		hasFile          bool
		hasNetwork       bool
		sandboxNeeded    bool
	)

	for _, s := range steps {
		c := classify(s)
		if c.Destructive {
			destructiveCount++
		}
		if s.StepRisk == types.RiskHigh {
			highCount++
		}
		if c.Irreversible {
			irreversible = true
		}
		if c.FileOp {
			hasFile = true
		}
		if c.Network {
			hasNetwork = true
		}
		if c.SandboxNeeded {
			sandboxNeeded = true
		}
	}

	risk := p.RiskLevel()
	requiresConfirmation := p.RequiresConfirmation()
	var factors []Factor

	if highCount >= 2 {
		risk = types.RiskCritical
		factors = append(factors, Factor{"critical", fmt.Sprintf("COMPOUND-RISK: %d HIGH-risk steps chained -> CRITICAL.", highCount)})
	}
	if destructiveCount > 1 {
		risk = types.RiskCritical
		factors = append(factors, Factor{"critical", fmt.Sprintf("COMPOUND-RISK: %d destructive steps -> CRITICAL.", destructiveCount)})
	}
	if destructiveCount > 0 && hasNetwork {
		risk = escalateOneLevel(risk)
		requiresConfirmation = true
		factors = append(factors, Factor{"high", "destructive step combined with network operation"})
	}
	if hasFile && hasNetwork {
		if risk.Less(types.RiskHigh) {
			risk = types.RiskHigh
		}
		requiresConfirmation = true
		factors = append(factors, Factor{"high", "EXFILTRATION-PATTERN: file and network operations mixed"})
	}
	if irreversible {
		requiresConfirmation = true
		factors = append(factors, Factor{"warning", "plan contains an irreversible step"})
	}

	return Report{
		CumulativeRisk:       risk,
		RequiresConfirmation: requiresConfirmation,
		RequiresSandbox:      sandboxNeeded,
		RollbackRequired:     destructiveCount > 0,
		Factors:              factors,
	}
}

// escalateOneLevel bumps risk one step up the LOW<MEDIUM<HIGH<CRITICAL
// ordering, saturating at CRITICAL.
func escalateOneLevel(r types.RiskLevel) types.RiskLevel {
	switch r {
	case types.RiskLow:
		return types.RiskMedium
	case types.RiskMedium:
		return types.RiskHigh
	default:
		return types.RiskCritical
	}
}
