package safety

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
)

// Sentinel errors for the safety package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error
// handling.
var (
	// ErrRegistryLocked is returned when a mutating call is made after lock.
	ErrRegistryLocked = errors.New("safety registry is locked")

	// ErrDuplicatePolicy is returned when a tool is registered twice.
	ErrDuplicatePolicy = errors.New("tool already has a registered policy")

	// ErrUnknownTool is returned when a policy is requested for an
	// unregistered tool. The caller must refuse execution.
	ErrUnknownTool = errors.New("no safety policy registered for tool")

	// ErrRegistryNotLocked is returned by GetRegistryHash before boot-lock.
	ErrRegistryNotLocked = errors.New("safety registry is not locked")
)

// ConfirmationLevel orders how strongly a tool demands human confirmation.
type ConfirmationLevel string

const (
	ConfirmationNone     ConfirmationLevel = "none"
	ConfirmationNotify   ConfirmationLevel = "notify"
	ConfirmationRequired ConfirmationLevel = "required"
)

// CostHints carries rough resource/risk weights used by the risk simulator
// and the orchestrator's budgeting.
type CostHints struct {
	CPU        float64 `json:"cpu"`
	Memory     float64 `json:"memory"`
	Network    float64 `json:"network"`
	RiskWeight float64 `json:"risk_weight"`
}

// Policy is the per-tool governance contract of spec.md §3.
type Policy struct {
	ToolName                  string            `json:"tool_name"`
	Reversible                bool              `json:"reversible"`
	Destructive               bool              `json:"destructive"`
	RequiresSandbox           bool              `json:"requires_sandbox"`
	ConfirmationRequiredLevel ConfirmationLevel `json:"confirmation_required_level"`
	RollbackStrategy          string            `json:"rollback_strategy"`
	PreStateCapture           string            `json:"pre_state_capture"`
	ResourceLocks             []string          `json:"resource_locks,omitempty"`
	Cost                      CostHints         `json:"cost"`
}

// Registry is the process-wide, boot-locked safety policy store. The zero
// value is ready for registration; once Lock is called, all mutating
// methods fail and GetPolicy/ListPolicies/GetRegistryHash become safe to
// call concurrently from many readers.
type Registry struct {
	policies map[string]Policy
	locked   bool
	hash     string
}

// NewRegistry creates an empty, unlocked registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register adds a policy for a tool. Fails if the registry is locked or the
// tool already has a policy.
func (r *Registry) Register(p Policy) error {
	if r.locked {
		return ErrRegistryLocked
	}
	if _, exists := r.policies[p.ToolName]; exists {
		return ErrDuplicatePolicy
	}
	r.policies[p.ToolName] = p
	return nil
}

// Lock serializes the registry canonically, computes its SHA-256, and
// prevents any further registration. Idempotent: locking an already-locked
// registry is a no-op and returns the existing hash.
func (r *Registry) Lock() (string, error) {
	if r.locked {
		return r.hash, nil
	}
	canonical, err := r.canonicalize()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	r.hash = hex.EncodeToString(sum[:])
	r.locked = true
	return r.hash, nil
}

// Locked reports whether the registry has been boot-locked.
func (r *Registry) Locked() bool {
	return r.locked
}

// GetRegistryHash returns the SHA-256 hex digest computed at Lock time.
func (r *Registry) GetRegistryHash() (string, error) {
	if !r.locked {
		return "", ErrRegistryNotLocked
	}
	return r.hash, nil
}

// GetPolicy returns the policy for toolName, failing hard (per spec.md §3)
// if the tool was never registered.
func (r *Registry) GetPolicy(toolName string) (Policy, error) {
	p, ok := r.policies[toolName]
	if !ok {
		return Policy{}, ErrUnknownTool
	}
	return p, nil
}

// HasPolicy reports whether toolName has a registered policy.
func (r *Registry) HasPolicy(toolName string) bool {
	_, ok := r.policies[toolName]
	return ok
}

// ListPolicies returns all registered policies sorted by tool name.
func (r *Registry) ListPolicies() []Policy {
	out := make([]Policy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToolName < out[j].ToolName })
	return out
}

// canonicalize produces a deterministic JSON serialization of the registry
// (sorted by tool name) for hashing.
func (r *Registry) canonicalize() ([]byte, error) {
	return json.Marshal(r.ListPolicies())
}
