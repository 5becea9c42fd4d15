package policy

import (
	"fmt"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// Registry holds the mode policy table, keyed by mode.
type Registry struct {
	policies map[domain.Mode]domain.ModePolicy
}

// NewRegistry creates a registry with the built-in table.
func NewRegistry() *Registry {
	return NewRegistryWithPolicies(DefaultTable()...)
}

// NewRegistryWithPolicies creates a registry with custom entries (for testing).
func NewRegistryWithPolicies(policies ...domain.ModePolicy) *Registry {
	r := &Registry{
		policies: make(map[domain.Mode]domain.ModePolicy, len(policies)),
	}
	for _, p := range policies {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the entry for p.Mode.
func (r *Registry) Register(p domain.ModePolicy) {
	r.policies[p.Mode] = p
}

// Lookup returns the entry for mode.
func (r *Registry) Lookup(mode domain.Mode) (domain.ModePolicy, bool) {
	p, ok := r.policies[mode]
	return p, ok
}

// All returns every registered entry in AllModes order.
func (r *Registry) All() []domain.ModePolicy {
	result := make([]domain.ModePolicy, 0, len(r.policies))
	for _, m := range domain.AllModes() {
		if p, ok := r.policies[m]; ok {
			result = append(result, p)
		}
	}
	return result
}

// Validate checks the table covers every mode with sane values.
func (r *Registry) Validate() error {
	for _, m := range domain.AllModes() {
		p, ok := r.policies[m]
		if !ok {
			return fmt.Errorf("policy table missing mode %q", m)
		}
		if p.TaskCap < 1 || p.TimerMin < 1 {
			return fmt.Errorf("mode %q: task cap and timer must be positive", m)
		}
		if p.GraceDaysPerMonth < 0 {
			return fmt.Errorf("mode %q: negative grace quota", m)
		}
		if !p.Animations.Valid() {
			return fmt.Errorf("mode %q: invalid animations %q", m, p.Animations)
		}
	}
	return nil
}

// Ensure Registry implements domain.PolicyTable.
var _ domain.PolicyTable = (*Registry)(nil)
