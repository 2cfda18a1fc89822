// Package ordered implements an insertion-ordered map and helpers for
// unmarshaling YAML into it. Descriptor documents are written by people, so
// gantry keeps their key order everywhere: parsing, normalising, and
// re-encoding all go through this package instead of Go's unordered maps.
package ordered

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

var _ interface {
	json.Marshaler
	yaml.IsZeroer
	yaml.Marshaler
	yaml.Unmarshaler
} = (*Map[string, any])(nil)

// Map stores key-value entries in insertion order. Writing an existing key
// replaces its value but keeps its original position.
type Map[K comparable, V any] struct {
	entries []Tuple[K, V]
	pos     map[K]int
}

// MapSS is shorthand for the common string-to-string map.
type MapSS = Map[string, string]

// MapSA is shorthand for the common string-to-any map.
type MapSA = Map[string, any]

// NewMap returns an empty map with room for cap entries.
func NewMap[K comparable, V any](cap int) *Map[K, V] {
	return &Map[K, V]{
		entries: make([]Tuple[K, V], 0, cap),
		pos:     make(map[K]int, cap),
	}
}

// MapFromItems returns a map containing the given entries, in the given
// order.
func MapFromItems[K comparable, V any](items ...Tuple[K, V]) *Map[K, V] {
	m := NewMap[K, V](len(items))
	for _, item := range items {
		m.Set(item.Key, item.Value)
	}
	return m
}

// Len returns the number of entries. A nil map has none.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// IsZero reports whether the map is nil or empty. yaml.v3 consults this for
// omitempty.
func (m *Map[K, V]) IsZero() bool {
	return m.Len() == 0
}

// Get returns the value for a key and whether the key was present.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	i, ok := m.pos[k]
	if !ok {
		var zero V
		return zero, false
	}
	return m.entries[i].Value, true
}

// Set stores a value. A new key goes at the end; an existing key keeps its
// position and gets the new value.
func (m *Map[K, V]) Set(k K, v V) {
	// A Map made with new(Map) rather than NewMap has a nil position index.
	if m.pos == nil {
		m.pos = make(map[K]int, 1)
	}

	if i, ok := m.pos[k]; ok {
		m.entries[i].Value = v
		return
	}

	m.pos[k] = len(m.entries)
	m.entries = append(m.entries, Tuple[K, V]{Key: k, Value: v})
}

// Range calls f for each entry in insertion order, stopping at the first
// error, which it returns.
func (m *Map[K, V]) Range(f func(k K, v V) error) error {
	if m.IsZero() {
		return nil
	}
	for _, e := range m.entries {
		if err := f(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two maps hold the same entries in the same order.
// Keys compare with ==. Values compare with go-cmp, which is given EqualSS
// and EqualSA as comparers so nested ordered maps compare by content.
func Equal[K comparable, V any](a, b *Map[K, V]) bool {
	if a == nil || b == nil {
		return a.Len() == b.Len()
	}
	if len(a.entries) != len(b.entries) {
		return false
	}
	for i, ae := range a.entries {
		be := b.entries[i]
		if ae.Key != be.Key {
			return false
		}
		if !cmp.Equal(ae.Value, be.Value, cmp.Comparer(Equal[string, string]), cmp.Comparer(Equal[string, any])) {
			return false
		}
	}
	return true
}

// EqualSS compares two string-to-string maps.
var EqualSS = Equal[string, string]

// EqualSA compares two string-to-any maps.
var EqualSA = Equal[string, any]

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	err := m.Range(func(k K, v V) error {
		if b.Len() > 1 {
			b.WriteByte(',')
		}
		bk, err := json.Marshal(k)
		if err != nil {
			return err
		}
		b.Write(bk)
		b.WriteByte(':')
		bv, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(bv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalYAML encodes the map as a mapping node with keys in insertion order.
func (m *Map[K, V]) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: make([]*yaml.Node, 0, 2*m.Len()),
	}
	err := m.Range(func(k K, v V) error {
		kn := new(yaml.Node)
		if err := kn.Encode(k); err != nil {
			return err
		}
		vn := new(yaml.Node)
		if err := vn.Encode(v); err != nil {
			return err
		}
		node.Content = append(node.Content, kn, vn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// UnmarshalYAML loads a mapping node, resolving aliases and merge keys on the
// way in. Only string keys are supported. For V = any the values decode with
// DecodeYAML, so nested mappings come out as *Map[string, any] rather than
// the map[string]any that yaml.v3 would pick.
func (m *Map[K, V]) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d, col %d: cannot unmarshal kind %x into a map (want %x)", n.Line, n.Column, n.Kind, yaml.MappingNode)
	}

	sm, ok := any(m).(*Map[string, V])
	if !ok {
		var zk K
		return fmt.Errorf("ordered.Map keys must be strings, not %T", zk)
	}

	if am, ok := any(m).(*Map[string, any]); ok {
		doc, err := DecodeYAML(n)
		if err != nil {
			return err
		}
		*am = *doc.(*Map[string, any])
		return nil
	}

	return forEachMapEntry(n, func(key string, val *yaml.Node) error {
		// Try the generic decode first, in case V is any-like ([]any, say).
		// Otherwise let yaml.v3 decode the specific type.
		var v V
		dv, err := DecodeYAML(val)
		if err != nil {
			return err
		}
		if tv, ok := dv.(V); ok {
			v = tv
		} else if err := val.Decode(&v); err != nil {
			return err
		}
		sm.Set(key, v)
		return nil
	})
}
