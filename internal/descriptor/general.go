package descriptor

import (
	"slices"

	"github.com/gantry-ci/gantry/internal/ordered"
)

// General models the general section of a descriptor. Branch gating for the
// run as a whole lives here; per-target deployment guards live on each
// Deployment.
type General struct {
	Branches *Branches `yaml:"branches,omitempty"`

	// Keys this model has no field for land in RemainingFields and are
	// written back out on marshal.
	RemainingFields map[string]any `yaml:",inline"`
}

// MarshalJSON encodes the section with its passthrough keys inlined.
func (g *General) MarshalJSON() ([]byte, error) {
	return marshalJSONWithInline(g)
}

// Branches is a branch allow-list and deny-list. If Only is non-empty it wins
// and Ignore is not consulted, matching the behaviour of the classic format.
type Branches struct {
	Only   ordered.Strings `json:"only,omitempty" yaml:"only,omitempty"`
	Ignore ordered.Strings `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// Match reports whether the given branch passes the gating. A nil or empty
// Branches matches every branch.
func (b *Branches) Match(branch string) bool {
	if b == nil {
		return true
	}
	if len(b.Only) > 0 {
		return slices.Contains(b.Only, branch)
	}
	if len(b.Ignore) > 0 {
		return !slices.Contains(b.Ignore, branch)
	}
	return true
}
