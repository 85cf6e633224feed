// Package capability implements the Capability Registry & Policy Engine of
// spec.md §4.6: a declarative grouping of intents, each capped at a maximum
// risk level, validated against a YAML definition file the way the
// teacher's goals package validates goal definitions.
package capability

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/boshu2/lyra/internal/types"
)

// Sentinel errors for the capability package.
var (
	ErrRegistryLocked    = errors.New("capability registry is locked")
	ErrIntentReregistered = errors.New("intent already belongs to a capability")
	ErrIntentUnknown     = errors.New("intent does not belong to any capability")
	ErrRiskExceeded      = errors.New("risk level exceeds capability's maximum")
)

// kebabRe matches kebab-case capability names, mirroring the teacher's
// goal-ID format convention.
var kebabRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Capability groups intents under a name and a risk ceiling.
type Capability struct {
	Name          string          `yaml:"name" json:"name"`
	AllowedIntents []string       `yaml:"allowed_intents" json:"allowed_intents"`
	MaxRisk       types.RiskLevel `yaml:"max_risk" json:"max_risk"`
}

// File is the top-level structure of a capability definitions YAML file.
type File struct {
	Version      int          `yaml:"version"`
	Capabilities []Capability `yaml:"capabilities"`
}

// ValidationError describes a structural problem with a capability
// definition.
type ValidationError struct {
	Capability string
	Field      string
	Message    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("capability %q field %q: %s", e.Capability, e.Field, e.Message)
}

// LoadFile reads and parses a capability definitions YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks a File for structural correctness: kebab-case names, a
// risk max that is one of the four defined levels, and no empty
// allowed-intents lists.
func Validate(f *File) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, c := range f.Capabilities {
		if c.Name == "" {
			errs = append(errs, ValidationError{c.Name, "name", "required"})
			continue
		}
		if seen[c.Name] {
			errs = append(errs, ValidationError{c.Name, "name", "duplicate"})
		}
		seen[c.Name] = true
		if !kebabRe.MatchString(c.Name) {
			errs = append(errs, ValidationError{c.Name, "name", "must be kebab-case"})
		}
		if len(c.AllowedIntents) == 0 {
			errs = append(errs, ValidationError{c.Name, "allowed_intents", "must not be empty"})
		}
		if !c.MaxRisk.Valid() {
			errs = append(errs, ValidationError{c.Name, "max_risk", fmt.Sprintf("invalid risk level %q", c.MaxRisk)})
		}
	}
	return errs
}

// Registry maps intents to their owning capability and enforces that every
// intent belongs to at most one. Like the safety registry, it is locked
// after initialization.
type Registry struct {
	byIntent map[string]Capability
	locked   bool
}

// NewRegistry creates an empty, unlocked capability registry.
func NewRegistry() *Registry {
	return &Registry{byIntent: make(map[string]Capability)}
}

// RegisterCapability adds a capability and its intents. Fails if the
// registry is locked or any intent already belongs to another capability.
func (r *Registry) RegisterCapability(c Capability) error {
	if r.locked {
		return ErrRegistryLocked
	}
	for _, intent := range c.AllowedIntents {
		if _, exists := r.byIntent[intent]; exists {
			return fmt.Errorf("%w: %s", ErrIntentReregistered, intent)
		}
	}
	for _, intent := range c.AllowedIntents {
		r.byIntent[intent] = c
	}
	return nil
}

// Lock prevents further registration.
func (r *Registry) Lock() {
	r.locked = true
}

// Locked reports whether the registry has been locked.
func (r *Registry) Locked() bool {
	return r.locked
}

// CapabilityFor returns the capability owning intent, or ErrIntentUnknown.
func (r *Registry) CapabilityFor(intent string) (Capability, error) {
	c, ok := r.byIntent[intent]
	if !ok {
		return Capability{}, ErrIntentUnknown
	}
	return c, nil
}

// ValidateRisk runs the two policy-engine checks of spec.md §4.6 for a
// classified command's intent and a plan's evaluated risk level:
//  1. the intent must belong to a registered capability.
//  2. the risk level must not exceed the capability's max_risk.
func (r *Registry) ValidateRisk(intent string, risk types.RiskLevel) error {
	cap, err := r.CapabilityFor(intent)
	if err != nil {
		return err
	}
	if cap.MaxRisk.Less(risk) {
		return fmt.Errorf("%w: capability %q allows up to %s, plan is %s", ErrRiskExceeded, cap.Name, cap.MaxRisk, risk)
	}
	return nil
}
