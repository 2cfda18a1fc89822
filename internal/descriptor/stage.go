package descriptor

import (
	"encoding/json"
	"fmt"

	"github.com/gantry-ci/gantry/internal/ordered"
	"gopkg.in/yaml.v3"
)

// Stage models an ordered group of shell commands for one phase of a run
// (dependencies or test). The classic format splits a stage into pre,
// override, and post lists; a bare list or single string is shorthand for
// override. The caveats in the package comment apply.
type Stage struct {
	Pre      ordered.Strings `yaml:"pre,omitempty"`
	Override ordered.Strings `yaml:"override,omitempty"`
	Post     ordered.Strings `yaml:"post,omitempty"`

	// RemainingFields holds whatever else the stage mapping carried;
	// marshaling writes it back out.
	RemainingFields map[string]any `yaml:",inline"`
}

// Commands returns the stage's full command sequence: pre, then override, then
// post.
func (s *Stage) Commands() []string {
	if s == nil {
		return nil
	}
	cmds := make([]string, 0, len(s.Pre)+len(s.Override)+len(s.Post))
	cmds = append(cmds, s.Pre...)
	cmds = append(cmds, s.Override...)
	cmds = append(cmds, s.Post...)
	return cmds
}

// MarshalJSON marshals the stage to JSON. A stage that only has override
// commands marshals back to the compact list form.
func (s *Stage) MarshalJSON() ([]byte, error) {
	if s.onlyOverride() {
		if s.Override == nil {
			// json.Marshal would emit null for a nil slice.
			return []byte("[]"), nil
		}
		return json.Marshal([]string(s.Override))
	}
	return marshalJSONWithInline(s)
}

// MarshalYAML marshals the stage to YAML. A stage that only has override
// commands marshals back to the compact list form.
func (s *Stage) MarshalYAML() (any, error) {
	if s.onlyOverride() {
		return []string(s.Override), nil
	}
	// Returning Stage itself would recurse into this method; a defined type
	// gets the default struct marshaling.
	type plainStage Stage
	return (*plainStage)(s), nil
}

func (s *Stage) onlyOverride() bool {
	return len(s.Pre) == 0 && len(s.Post) == 0 && len(s.RemainingFields) == 0
}

// UnmarshalYAML unmarshals a stage from YAML. A custom unmarshaler is needed
// since a stage can be either
//   - a mapping with pre/override/post keys, or
//   - a sequence or single scalar, shorthand for override.
func (s *Stage) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.MappingNode:
		type plainStage Stage
		var q plainStage
		if err := n.Decode(&q); err != nil {
			return err
		}
		*s = Stage(q)

	case yaml.SequenceNode, yaml.ScalarNode:
		return n.Decode(&s.Override)

	default:
		return fmt.Errorf("line %d, col %d: unsupported YAML node kind %x for Stage", n.Line, n.Column, n.Kind)
	}

	return nil
}

// UnmarshalOrdered unmarshals a stage from an ordered map, sequence, or
// scalar.
func (s *Stage) UnmarshalOrdered(src any) error {
	switch src := src.(type) {
	case *ordered.MapSA:
		type plainStage Stage
		if err := ordered.Unmarshal(src, (*plainStage)(s)); err != nil {
			return fmt.Errorf("unmarshaling Stage: %w", err)
		}

	case nil:
		// An empty stage, e.g. "test:" with nothing under it.
		*s = Stage{}

	default:
		// A sequence or single scalar, shorthand for override.
		if err := ordered.Unmarshal(src, &s.Override); err != nil {
			return fmt.Errorf("unmarshaling Stage override commands: %w", err)
		}
	}

	return nil
}
