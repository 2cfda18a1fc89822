package descriptor

import (
	"github.com/gantry-ci/gantry/internal/ordered"
)

// Machine models the machine section of a descriptor: the host-level
// prerequisites for a run. Services are opaque names for gantry; whether
// "docker" is actually available is the runner's problem.
type Machine struct {
	Services    ordered.Strings `yaml:"services,omitempty"`
	Environment *ordered.MapSS  `yaml:"environment,omitempty"`

	// RemainingFields keeps unmodeled machine keys through a round-trip.
	RemainingFields map[string]any `yaml:",inline"`
}

// MarshalJSON encodes the section with RemainingFields hoisted into the
// object, mirroring the YAML layout.
func (m *Machine) MarshalJSON() ([]byte, error) {
	return marshalJSONWithInline(m)
}
