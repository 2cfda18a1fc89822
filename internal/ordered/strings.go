package ordered

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Strings is a []string that also accepts a single scalar when unmarshaling,
// so `command: make test` and `command: [make, test]` both work.
type Strings []string

// UnmarshalOrdered appends the contents of src: elementwise for a sequence,
// as one element for a scalar. Non-string values are formatted with
// fmt.Sprint. Maps are rejected, and an explicit null appends nothing.
func (s *Strings) UnmarshalOrdered(src any) error {
	switch src := src.(type) {
	case []any:
		for _, a := range src {
			*s = append(*s, fmt.Sprint(a))
		}

	case nil:
		// Explicit null. Nothing to append.

	case *Map[string, any]:
		return fmt.Errorf("%w: a mapping cannot become Strings", ErrIncompatibleTypes)

	default:
		// Take src to be a scalar.
		*s = append(*s, fmt.Sprint(src))
	}

	return nil
}

// UnmarshalYAML is the yaml.v3 counterpart of UnmarshalOrdered: a sequence
// node appends elementwise, a scalar node appends one element, and any other
// kind is an error.
func (s *Strings) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var x string
		if err := n.Decode(&x); err != nil {
			return err
		}
		*s = append(*s, x)

	case yaml.SequenceNode:
		var xs []string
		if err := n.Decode(&xs); err != nil {
			return err
		}
		*s = append(*s, xs...)

	default:
		return fmt.Errorf("line %d, col %d: cannot unmarshal kind %x into Strings (want %x or %x)", n.Line, n.Column, n.Kind, yaml.ScalarNode, yaml.SequenceNode)
	}

	return nil
}
