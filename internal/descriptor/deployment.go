package descriptor

import (
	"github.com/gantry-ci/gantry/internal/ordered"
)

// Deployment models one named deployment target: a branch guard plus the
// ordered commands to run when the guard passes. The caveats in the package
// comment apply.
type Deployment struct {
	Branch   string          `yaml:"branch,omitempty"`
	Commands ordered.Strings `yaml:"commands,omitempty"`

	// Unknown target keys are kept here so marshaling can reproduce them.
	RemainingFields map[string]any `yaml:",inline"`
}

// MarshalJSON inlines RemainingFields, as the yaml encoding does.
func (d *Deployment) MarshalJSON() ([]byte, error) {
	return marshalJSONWithInline(d)
}

// Matches reports whether the target's branch guard passes for the given
// branch. A target without a branch guard never matches: deployments are
// opt-in per branch.
func (d *Deployment) Matches(branch string) bool {
	return d.Branch != "" && d.Branch == branch
}
