package ordered

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML translates a parsed node into plain values: mappings become
// *Map[string, any], sequences []any, and scalars their usual Go types.
// Aliases and merge keys are resolved on the way, so the result is the
// document as its author meant it, in its original order.
func DecodeYAML(n *yaml.Node) (any, error) {
	return decodeNode(make(map[*yaml.Node]bool), n)
}

// decodeNode does the work of DecodeYAML. visiting holds the nodes on the
// current decode path so alias cycles are caught instead of recursed into.
func decodeNode(visiting map[*yaml.Node]bool, n *yaml.Node) (any, error) {
	if n == nil {
		return nil, nil
	}

	// An alias that (indirectly) contains itself would never terminate:
	//   a: &a
	//     b: *a
	if visiting[n] {
		return nil, fmt.Errorf("line %d, col %d: alias cycle", n.Line, n.Column)
	}
	visiting[n] = true

	// The same anchor can appear under many keys, which is fine - only a
	// cycle is an error. So n stops being "visiting" once its subtree is
	// done.
	defer delete(visiting, n)

	switch n.Kind {
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil

	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(visiting, c)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil

	case yaml.MappingNode:
		m := NewMap[string, any](len(n.Content) / 2)
		err := forEachMapEntry(n, func(key string, val *yaml.Node) error {
			v, err := decodeNode(visiting, val)
			if err != nil {
				return err
			}
			m.Set(key, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil

	case yaml.AliasNode:
		return decodeNode(visiting, n.Alias)

	case yaml.DocumentNode:
		switch len(n.Content) {
		case 0:
			return nil, nil
		case 1:
			return decodeNode(visiting, n.Content[0])
		default:
			return nil, fmt.Errorf("line %d, col %d: document has %d top-level nodes, want at most 1", n.Line, n.Column, len(n.Content))
		}

	default:
		return nil, fmt.Errorf("line %d, col %d: cannot decode node kind %x", n.Line, n.Column, n.Kind)
	}
}

// forEachMapEntry calls f with each key-value entry of a mapping node, in
// order, with merge keys (`<<`) expanded. Keys must be scalars; they are
// canonicalised to strings. Because a merge value can be an alias to another
// mapping, or a sequence of aliases, the walk also accepts those kinds.
func forEachMapEntry(n *yaml.Node, f func(key string, val *yaml.Node) error) error {
	return mergeMapEntries(make(map[*yaml.Node]bool), n, f)
}

// mergeMapEntries implements forEachMapEntry. merged holds mapping nodes
// already expanded into the walk, so a self-referential merge terminates and
// repeated merges of the same anchor are skipped.
func mergeMapEntries(merged map[*yaml.Node]bool, n *yaml.Node, f func(key string, val *yaml.Node) error) error {
	if n == nil {
		return nil
	}
	if merged[n] {
		return nil
	}
	merged[n] = true

	switch n.Kind {
	case yaml.MappingNode:
		// yaml.v3 stores mapping contents flat: key, value, key, value...
		if len(n.Content)%2 != 0 {
			return fmt.Errorf("line %d, col %d: mapping has %d content nodes, want an even number", n.Line, n.Column, len(n.Content))
		}

		// Merge semantics (yaml.org/type/merge.html): a key already present
		// in the outer mapping wins over the same key arriving via a merge,
		// and an earlier merge wins over a later one. Order still matters to
		// us; so first collect the keys present at this level, then walk the
		// entries again, expanding merges but skipping keys seen before.
		keys := make(map[string]bool)
		for i := 0; i < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Tag == "!!merge" {
				continue
			}
			ck, err := scalarMapKey(k)
			if err != nil {
				return err
			}
			keys[ck] = true
		}

		skipSeenKeys := func(k string, v *yaml.Node) error {
			if keys[k] {
				return nil
			}
			keys[k] = true
			return f(k, v)
		}

		for i := 0; i < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]

			if k.Tag == "!!merge" {
				if err := mergeMapEntries(merged, v, skipSeenKeys); err != nil {
					return err
				}
				continue
			}

			ck, err := scalarMapKey(k)
			if err != nil {
				return err
			}
			if err := f(ck, v); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		// `<<: [*a, *b]` merges multiple mappings.
		for _, c := range n.Content {
			if err := mergeMapEntries(merged, c, f); err != nil {
				return err
			}
		}

	case yaml.AliasNode:
		if err := mergeMapEntries(merged, n.Alias, f); err != nil {
			return err
		}

	default:
		return fmt.Errorf("line %d, col %d: cannot iterate mapping entries of node kind %x", n.Line, n.Column, n.Kind)
	}
	return nil
}

// scalarMapKey canonicalises a scalar key node to a string. YAML treats 0xb
// and 11 as the same key, and JSON needs string keys anyway, so numeric and
// boolean keys get one fixed representation.
func scalarMapKey(n *yaml.Node) (string, error) {
	var x any
	if err := n.Decode(&x); err != nil {
		return "", err
	}
	if x == nil || n.Tag == "!!null" {
		return "", fmt.Errorf("line %d, col %d: null cannot be a map key", n.Line, n.Column)
	}
	switch n.Tag {
	case "!!bool":
		return fmt.Sprintf("%t", x), nil
	case "!!int":
		return fmt.Sprintf("%d", x), nil
	case "!!float":
		// Inf and NaN need no special case here: they arrive quoted.
		return fmt.Sprintf("%e", x), nil
	default:
		return n.Value, nil
	}
}
