// Package plan implements the Execution Plan and Plan Step schema of
// spec.md §3 and §4.5: a directed acyclic graph of steps that is built
// mutably and then frozen into an immutable, hash-verified value.
package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/boshu2/lyra/internal/types"
)

// ErrAlreadyFrozen is returned when Builder methods are called after Freeze.
var ErrAlreadyFrozen = errors.New("plan builder already frozen")

// RetryPolicy governs step-level retry behavior.
type RetryPolicy struct {
	MaxAttempts int           `json:"max_attempts"`
	Backoff     time.Duration `json:"backoff"`
}

// Step is one atomic action within a plan.
type Step struct {
	StepID          string            `json:"step_id"`
	ToolName        string            `json:"tool_name"`
	ToolVersion     string            `json:"tool_version"`
	ToolSHA256      string            `json:"tool_sha256"`
	ValidatedInput  map[string]string `json:"validated_input"`
	StepRisk        types.RiskLevel   `json:"step_risk"`
	DependsOn       []string          `json:"depends_on"`
	RetryPolicy     RetryPolicy       `json:"retry_policy"`
	TimeoutSeconds  int               `json:"timeout_seconds"`
}

// sortedDeps returns a copy of DependsOn sorted for canonical hashing.
func (s Step) sortedDeps() []string {
	out := append([]string(nil), s.DependsOn...)
	sort.Strings(out)
	return out
}

// canonicalStep is the canonical, hash-stable projection of a Step.
type canonicalStep struct {
	StepID         string            `json:"step_id"`
	ToolName       string            `json:"tool_name"`
	ToolVersion    string            `json:"tool_version"`
	ToolSHA256     string            `json:"tool_sha256"`
	ValidatedInput map[string]string `json:"validated_input"`
	StepRisk       types.RiskLevel   `json:"step_risk"`
	DependsOn      []string          `json:"depends_on"`
	TimeoutSeconds int               `json:"timeout_seconds"`
}

func (s Step) canonical() canonicalStep {
	return canonicalStep{
		StepID:         s.StepID,
		ToolName:       s.ToolName,
		ToolVersion:    s.ToolVersion,
		ToolSHA256:     s.ToolSHA256,
		ValidatedInput: s.ValidatedInput,
		StepRisk:       s.StepRisk,
		DependsOn:      s.sortedDeps(),
		TimeoutSeconds: s.TimeoutSeconds,
	}
}

// Builder accumulates steps for one plan before freezing.
type Builder struct {
	planID  string
	steps   []Step
	created time.Time
	frozen  bool
}

// NewBuilder starts a new plan builder with a fresh plan ID.
func NewBuilder() *Builder {
	return &Builder{planID: uuid.NewString(), created: time.Now()}
}

// AddStep appends a step to the plan. Fails if the builder was already
// frozen.
func (b *Builder) AddStep(s Step) error {
	if b.frozen {
		return ErrAlreadyFrozen
	}
	b.steps = append(b.steps, s)
	return nil
}

// Freeze computes the plan's maximum risk, confirmation requirement, and
// canonical hash, then returns an opaque, read-only Frozen plan. The
// builder itself is marked frozen and further AddStep calls fail.
func (b *Builder) Freeze() (Frozen, error) {
	if b.frozen {
		return Frozen{}, ErrAlreadyFrozen
	}
	b.frozen = true

	steps := make([]Step, len(b.steps))
	copy(steps, b.steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepID < steps[j].StepID })

	risk := types.RiskLow
	requiresConfirmation := false
	for _, s := range steps {
		risk = risk.Max(s.StepRisk)
		if s.StepRisk == types.RiskHigh || s.StepRisk == types.RiskCritical {
			requiresConfirmation = true
		}
	}

	snapshot, err := canonicalSnapshot(steps)
	if err != nil {
		return Frozen{}, err
	}
	hash := hashSnapshot(snapshot)

	return Frozen{
		planID:               b.planID,
		createdAt:            b.created,
		riskLevel:            risk,
		requiresConfirmation: requiresConfirmation,
		steps:                steps,
		snapshot:             snapshot,
		hash:                 hash,
	}, nil
}

// canonicalSnapshot serializes steps (already sorted by StepID) into the
// canonical string the deterministic hash is computed over.
func canonicalSnapshot(steps []Step) (string, error) {
	projected := make([]canonicalStep, len(steps))
	for i, s := range steps {
		projected[i] = s.canonical()
	}
	b, err := json.Marshal(projected)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func hashSnapshot(snapshot string) string {
	sum := sha256.Sum256([]byte(snapshot))
	return hex.EncodeToString(sum[:])
}

// Frozen is an immutable execution plan. It exposes only read-only methods;
// there is no exported way to mutate its steps once constructed, matching
// spec.md §9's "compile-time impossibility" guidance.
type Frozen struct {
	planID               string
	createdAt            time.Time
	riskLevel            types.RiskLevel
	requiresConfirmation bool
	steps                []Step
	snapshot             string
	hash                 string
}

// PlanID returns the plan's unique identifier.
func (f Frozen) PlanID() string { return f.planID }

// CreatedAt returns when the plan was built.
func (f Frozen) CreatedAt() time.Time { return f.createdAt }

// RiskLevel returns the maximum risk across all steps.
func (f Frozen) RiskLevel() types.RiskLevel { return f.riskLevel }

// RequiresConfirmation reports whether any step is HIGH or CRITICAL risk.
func (f Frozen) RequiresConfirmation() bool { return f.requiresConfirmation }

// Steps returns a defensive copy of the frozen step sequence.
func (f Frozen) Steps() []Step {
	out := make([]Step, len(f.steps))
	copy(out, f.steps)
	return out
}

// DeterministicHash returns the SHA-256 hash computed at freeze time.
func (f Frozen) DeterministicHash() string { return f.hash }

// Snapshot returns the canonical string the hash was computed from.
func (f Frozen) Snapshot() string { return f.snapshot }

// ValidateIntegrity recomputes the snapshot and hash from the current steps
// and compares them byte-for-byte against the stored values.
func (f Frozen) ValidateIntegrity() (bool, error) {
	snapshot, err := canonicalSnapshot(f.steps)
	if err != nil {
		return false, err
	}
	if snapshot != f.snapshot {
		return false, nil
	}
	return hashSnapshot(snapshot) == f.hash, nil
}
