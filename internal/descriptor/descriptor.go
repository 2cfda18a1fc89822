package descriptor

import (
	"errors"
	"fmt"

	"github.com/gantry-ci/gantry/internal/ordered"
	"gopkg.in/yaml.v3"
)

// Returned when a descriptor has no build, test, or deployment stage.
var ErrNoStages = errors.New("descriptor has no stages")

// Pipeline models a pipeline descriptor. The caveats in the package comment
// apply to it in full.
type Pipeline struct {
	Machine      *Machine                          `yaml:"machine,omitempty"`
	General      *General                          `yaml:"general,omitempty"`
	Dependencies *Stage                            `yaml:"dependencies,omitempty"`
	Test         *Stage                            `yaml:"test,omitempty"`
	Deployment   *ordered.Map[string, *Deployment] `yaml:"deployment,omitempty"`

	// RemainingFields catches top-level keys the model has no field for, so
	// an unmarshal-marshal round trip doesn't drop them.
	RemainingFields map[string]any `yaml:",inline"`
}

// MarshalJSON marshals the descriptor to JSON. encoding/json has no ,inline,
// so the passthrough keys are flattened by hand.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	return marshalJSONWithInline(p)
}

// UnmarshalYAML decodes a descriptor from a YAML node. The custom unmarshaler
// unwraps the enclosing document and rejects non-mapping documents with
// something more helpful than a decode error.
func (p *Pipeline) UnmarshalYAML(n *yaml.Node) error {
	// yaml.v3 hands over the root as a DocumentNode; the descriptor is its
	// single child.
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) != 1 {
			return fmt.Errorf("line %d, col %d: document is empty", n.Line, n.Column)
		}
		n = n.Content[0]
	}

	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d, col %d: a descriptor must be a mapping, got node kind %x", n.Line, n.Column, n.Kind)
	}

	// Decoding into Pipeline itself would call this method again, forever. A
	// defined type with the same fields has no methods, so it decodes plainly.
	type plainPipeline Pipeline
	var q plainPipeline
	if err := n.Decode(&q); err != nil {
		return err
	}
	*p = Pipeline(q)

	if !p.hasStages() {
		return ErrNoStages
	}
	return nil
}

// UnmarshalOrdered unmarshals a descriptor from an ordered map.
func (p *Pipeline) UnmarshalOrdered(src any) error {
	switch src.(type) {
	case *ordered.MapSA:
		// Same trick as UnmarshalYAML: a defined type sidesteps the infinite
		// recursion that unmarshaling into Pipeline itself would cause.
		type plainPipeline Pipeline
		if err := ordered.Unmarshal(src, (*plainPipeline)(p)); err != nil {
			return fmt.Errorf("unmarshaling Pipeline: %w", err)
		}

	default:
		return fmt.Errorf("unmarshaling Pipeline: unsupported src type %T", src)
	}

	if !p.hasStages() {
		return ErrNoStages
	}
	return nil
}

func (p *Pipeline) hasStages() bool {
	return p.Dependencies != nil || p.Test != nil || p.Deployment.Len() > 0
}

// Services returns the services the descriptor requires on the host
// (machine.services), in document order.
func (p *Pipeline) Services() []string {
	if p.Machine == nil {
		return nil
	}
	return p.Machine.Services
}

// Triggers reports whether runs for the given branch pass the descriptor's
// general.branches gating. A descriptor without branch restrictions triggers
// for every branch.
func (p *Pipeline) Triggers(branch string) bool {
	if p.General == nil {
		return true
	}
	return p.General.Branches.Match(branch)
}
