// Package orchestrator implements the Task Orchestrator of spec.md §4.8:
// activated only at DEEP reasoning depth for a complex_goal or
// autonomous_goal intent, it asks the advisor for a strict multi-step
// plan, validates it for loop-prone or out-of-policy structure, and drives
// each step through the same safety gate, policy engine, and watchdog as
// any other command — bypassing only the intent classifier, since the
// advisor already named each step's intent directly.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MaxSteps is the hard ceiling on an orchestrator plan's length.
const MaxSteps = 6

// MaxIntentRepetitions is the number of appearances of one intent across a
// plan at which the plan is rejected as loop-prone.
const MaxIntentRepetitions = 3

// GlobalTimeout bounds the orchestrator's entire run, independent of any
// individual step's own timeout.
const GlobalTimeout = 10 * time.Second

// MaxConsecutiveFailures aborts the run once reached.
const MaxConsecutiveFailures = 2

// Sentinel validation errors.
var (
	ErrTooManySteps  = errors.New("orchestrator plan exceeds the maximum step count")
	ErrUnknownIntent = errors.New("orchestrator plan references an intent outside the capability registry")
	ErrIntentLoop    = errors.New("orchestrator plan repeats the same intent too many times")
)

// ErrPolicyViolation is returned by a StepExecutor when a step was blocked
// by the safety gate or policy engine, not merely failed to run. A single
// policy violation aborts the run immediately regardless of the
// consecutive-failure count.
var ErrPolicyViolation = errors.New("orchestrator step blocked by safety policy")

// Step is one advisor-proposed orchestrator step.
type Step struct {
	StepID      string            `json:"step_id"`
	Intent      string            `json:"intent"`
	Parameters  map[string]string `json:"parameters"`
	Description string            `json:"description"`
}

// AdvisorPlan is the strict-JSON shape the advisor must return.
type AdvisorPlan struct {
	Steps []Step `json:"steps"`
}

// ParsePlan decodes raw advisor JSON output into an AdvisorPlan.
func ParsePlan(raw string) (AdvisorPlan, error) {
	var plan AdvisorPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return AdvisorPlan{}, fmt.Errorf("parse orchestrator plan: %w", err)
	}
	return plan, nil
}

// IntentKnown reports whether intent belongs to a registered capability.
// Supplied by the caller so this package doesn't import the capability
// registry directly; orchestrator only needs the yes/no answer.
type IntentKnown func(intent string) bool

// Validate runs the three structural checks of spec.md §4.8 step 2.
func Validate(plan AdvisorPlan, known IntentKnown) error {
	if len(plan.Steps) > MaxSteps {
		return fmt.Errorf("%w: %d steps (max %d)", ErrTooManySteps, len(plan.Steps), MaxSteps)
	}

	counts := make(map[string]int)
	for _, s := range plan.Steps {
		if !known(s.Intent) {
			return fmt.Errorf("%w: %s", ErrUnknownIntent, s.Intent)
		}
		counts[s.Intent]++
		if counts[s.Intent] >= MaxIntentRepetitions {
			return fmt.Errorf("%w: %s appears %d times", ErrIntentLoop, s.Intent, counts[s.Intent])
		}
	}
	return nil
}

// StepOutcome is one step's execution result.
type StepOutcome struct {
	StepID  string
	Success bool
	Err     error
}

// StepExecutor runs one orchestrator step through the dedicated pathway
// (safety gate, policy engine, watchdog) that bypasses only the intent
// classifier, since the step's intent is already known.
type StepExecutor func(ctx context.Context, step Step) error

// Status is the orchestrator run's final verdict.
type Status string

const (
	StatusSuccess Status = "success"
	StatusAborted Status = "aborted"
)

// Summary is the single audit-style summary spec.md §4.8 step 4 requires.
type Summary struct {
	Status        Status
	StepsExecuted int
	FailedStepIdx int
	AuditLog      []StepOutcome
}

// Run executes a validated plan's steps in order via executor, aborting
// after MaxConsecutiveFailures consecutive failures or once the global
// timeout elapses.
func Run(ctx context.Context, plan AdvisorPlan, executor StepExecutor) Summary {
	ctx, cancel := context.WithTimeout(ctx, GlobalTimeout)
	defer cancel()

	summary := Summary{Status: StatusSuccess, FailedStepIdx: -1}
	consecutiveFailures := 0

	for i, step := range plan.Steps {
		select {
		case <-ctx.Done():
			summary.Status = StatusAborted
			if summary.FailedStepIdx == -1 {
				summary.FailedStepIdx = i
			}
			return summary
		default:
		}

		err := executor(ctx, step)
		outcome := StepOutcome{StepID: step.StepID, Success: err == nil, Err: err}
		summary.AuditLog = append(summary.AuditLog, outcome)
		summary.StepsExecuted++

		if err != nil {
			consecutiveFailures++
			if summary.FailedStepIdx == -1 {
				summary.FailedStepIdx = i
			}
			if errors.Is(err, ErrPolicyViolation) || consecutiveFailures >= MaxConsecutiveFailures {
				summary.Status = StatusAborted
				return summary
			}
			continue
		}
		consecutiveFailures = 0
	}

	return summary
}
