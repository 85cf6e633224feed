// Package execution implements the Execution Engine of spec.md §4.7: it
// topologically orders a frozen plan's steps, runs each in turn with
// kill-switch polling and tool-drift detection, threads `${step_id.field}`
// output substitution between dependent steps, and records rollback
// actions for any reversible step before it runs. The dispatch loop and
// its error handling mirror the teacher's worker pool's cancellation-aware
// fan-out, generalized here to a dependency-ordered sequential walk rather
// than an unordered fan-out, since plan steps carry DependsOn edges the
// teacher's homogeneous work items never had.
package execution

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/boshu2/lyra/internal/plan"
	"github.com/boshu2/lyra/internal/rollback"
	"github.com/boshu2/lyra/internal/tools"
)

// Sentinel errors.
var (
	ErrCycle          = errors.New("plan contains a dependency cycle")
	ErrUnknownDep     = errors.New("step depends on an unknown step id")
	ErrKillSwitch     = errors.New("execution halted by kill switch")
	ErrToolDrift      = errors.New("TOOL_DRIFT_DETECTED")
)

// KillSwitch is polled before every step. Implementations must be safe for
// concurrent use.
type KillSwitch func() bool

// StepResult captures one executed step's outcome.
type StepResult struct {
	StepID  string
	Output  map[string]string
	Err     error
	Skipped bool
}

// Outcome is the full result of running a plan.
type Outcome struct {
	Results          []StepResult
	RollbackStack    *rollback.Stack
	HaltedByKill     bool
	HaltedByDrift    bool
	FailedStepID     string
}

// TopoSort orders steps by dependency using Kahn's algorithm, breaking
// ties by sorted step ID so the ordering is deterministic across runs.
func TopoSort(steps []plan.Step) ([]plan.Step, error) {
	byID := make(map[string]plan.Step, len(steps))
	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string)

	for _, s := range steps {
		byID[s.StepID] = s
		if _, ok := indegree[s.StepID]; !ok {
			indegree[s.StepID] = 0
		}
	}
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownDep, s.StepID, dep)
			}
			indegree[s.StepID]++
			dependents[dep] = append(dependents[dep], s.StepID)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var ordered []plan.Step
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byID[id])

		next := append([]string(nil), dependents[id]...)
		sort.Strings(next)
		for _, d := range next {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(ordered) != len(steps) {
		return nil, ErrCycle
	}
	return ordered, nil
}

// substitutionPattern matches ${step_id.field} references in step input.
var substitutionPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9_-]+)\.([a-zA-Z0-9_]+)\}`)

// substitute resolves ${step_id.field} references in value using the
// outputs of previously executed steps.
func substitute(value string, outputs map[string]map[string]string) string {
	return substitutionPattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := substitutionPattern.FindStringSubmatch(match)
		stepID, field := groups[1], groups[2]
		if out, ok := outputs[stepID]; ok {
			if v, ok := out[field]; ok {
				return v
			}
		}
		return match
	})
}

func substituteInputs(input map[string]string, outputs map[string]map[string]string) map[string]string {
	resolved := make(map[string]string, len(input))
	for k, v := range input {
		if strings.Contains(v, "${") {
			v = substitute(v, outputs)
		}
		resolved[k] = v
	}
	return resolved
}

// sandboxDispatch simulates a tool invocation for a requires_sandbox step:
// no real state mutation happens, and the caller gets a payload describing
// what would have changed instead of a real effect. Grounded on
// turtacn-kubestack-ai's plugin.Sandbox wrapper, scaled down since lyra's
// core ships no concrete sandboxed runtime of its own (a real deployment
// swaps this for an actual container/VM boundary).
func sandboxDispatch(toolName string, input map[string]string) map[string]string {
	return map[string]string{
		"status": "sandboxed",
		"tool":   toolName,
		"diff":   fmt.Sprintf("simulated-diff: %s would run with %d input field(s), no real state mutation", toolName, len(input)),
	}
}

// Engine runs frozen plans against a tool registry.
type Engine struct {
	registry   *tools.Registry
	killSwitch KillSwitch
}

// NewEngine constructs an execution engine bound to a tool registry and a
// kill-switch poller. A nil kill switch is treated as "never triggered".
func NewEngine(registry *tools.Registry, kill KillSwitch) *Engine {
	if kill == nil {
		kill = func() bool { return false }
	}
	return &Engine{registry: registry, killSwitch: kill}
}

// Run executes a frozen plan's steps in dependency order. For each step
// whose tool policy marks it reversible, a rollback action is pushed
// before the tool is invoked. A step whose policy marks it
// requires_sandbox is never handed to the tool's real Invoke: it is
// dispatched through sandboxDispatch instead, which performs no state
// mutation and returns a simulated-diff payload — no bypass is permitted,
// per spec.md §4.7. Execution halts immediately (without running further
// steps) on kill-switch trip, tool-drift detection, or an unrecoverable
// step error; in all three cases the caller is expected to invoke
// rollback.Unwind on the returned stack. sandboxed may be nil, treated as
// "no step needs a sandbox".
func (e *Engine) Run(ctx context.Context, frozen plan.Frozen, reversible func(toolName string) (undoLogic string, ok bool), sandboxed func(toolName string) bool) Outcome {
	ordered, err := TopoSort(frozen.Steps())
	if err != nil {
		return Outcome{Results: []StepResult{{Err: err}}}
	}

	stack := rollback.NewStack()
	outputs := make(map[string]map[string]string)
	outcome := Outcome{RollbackStack: stack}

	for _, step := range ordered {
		if e.killSwitch() {
			outcome.HaltedByKill = true
			outcome.FailedStepID = step.StepID
			return outcome
		}
		select {
		case <-ctx.Done():
			outcome.FailedStepID = step.StepID
			outcome.Results = append(outcome.Results, StepResult{StepID: step.StepID, Err: ctx.Err()})
			return outcome
		default:
		}

		def, err := e.registry.Get(step.ToolName)
		if err != nil {
			outcome.Results = append(outcome.Results, StepResult{StepID: step.StepID, Err: err})
			outcome.FailedStepID = step.StepID
			return outcome
		}

		if def.Version != step.ToolVersion || def.SHA256 != step.ToolSHA256 {
			outcome.HaltedByDrift = true
			outcome.FailedStepID = step.StepID
			outcome.Results = append(outcome.Results, StepResult{StepID: step.StepID, Err: ErrToolDrift})
			return outcome
		}

		if undoLogic, ok := reversible(step.ToolName); ok {
			_ = stack.Push(rollback.Action{
				StepID:    step.StepID,
				ToolName:  step.ToolName,
				UndoLogic: undoLogic,
				Snapshot:  substituteInputs(step.ValidatedInput, outputs),
			})
		}

		input := substituteInputs(step.ValidatedInput, outputs)

		var out map[string]string
		if sandboxed != nil && sandboxed(step.ToolName) {
			out = sandboxDispatch(step.ToolName, input)
		} else {
			out, err = def.Invoke(ctx, input)
			if err != nil {
				outcome.Results = append(outcome.Results, StepResult{StepID: step.StepID, Err: err})
				outcome.FailedStepID = step.StepID
				return outcome
			}
		}
		outputs[step.StepID] = out
		outcome.Results = append(outcome.Results, StepResult{StepID: step.StepID, Output: out})
	}

	return outcome
}
