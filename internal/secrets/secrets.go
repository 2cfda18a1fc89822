package secrets

import (
	"fmt"
	"strings"

	"github.com/gantry-ci/gantry/env"
)

// Source resolves template variables for rendering. Implementations must be
// safe for concurrent use.
type Source interface {
	// Get returns the value for key and reports whether the source has it.
	// Absence is not an error; callers decide how loud to be about it.
	Get(key string) (string, bool)

	// Name identifies the source in diagnostics.
	Name() string
}

// Static is a fixed set of variables, such as from repeated --var flags.
type Static struct {
	name string
	env  *env.Environment
}

// NewStatic builds a Static source from a plain map.
func NewStatic(name string, vars map[string]string) *Static {
	return &Static{name: name, env: env.FromMap(vars)}
}

// StaticFromPairs builds a Static source from KEY=value strings.
func StaticFromPairs(name string, pairs []string) (*Static, error) {
	e := env.NewWithLength(len(pairs))
	for _, pair := range pairs {
		k, v, ok := env.Split(pair)
		if !ok {
			return nil, fmt.Errorf("%q is not in KEY=value form", pair)
		}
		e.Set(k, v)
	}
	return &Static{name: name, env: e}, nil
}

func (s *Static) Get(key string) (string, bool) { return s.env.Get(key) }

func (s *Static) Name() string { return s.name }

// Multi chains sources. The first source that has a key wins.
type Multi struct {
	sources []Source
}

// NewMulti builds a chain from the given sources, in resolution order.
// Nil sources are skipped, so callers can pass optionally-constructed ones
// without checking.
func NewMulti(sources ...Source) *Multi {
	m := new(Multi)
	for _, s := range sources {
		if s != nil {
			m.sources = append(m.sources, s)
		}
	}
	return m
}

func (m *Multi) Get(key string) (string, bool) {
	v, _, ok := m.Lookup(key)
	return v, ok
}

// Lookup is Get, but also names the source that resolved the key.
func (m *Multi) Lookup(key string) (value, source string, ok bool) {
	for _, s := range m.sources {
		if v, ok := s.Get(key); ok {
			return v, s.Name(), true
		}
	}
	return "", "", false
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.sources))
	for _, s := range m.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, ", ")
}
