package descriptor

import (
	"github.com/buildkite/interpolate"
	"github.com/gantry-ci/gantry/internal/ordered"
)

// expander expands ${FOO} and $FOO references against a fixed environment.
type expander struct {
	env interpolate.Env
}

func (x expander) expand(s string) (string, error) {
	return interpolate.Interpolate(x.env, s)
}

// expandValues rewrites every value of m in place. Keys stay literal: they
// are environment variable names, not references.
func (x expander) expandValues(m *ordered.MapSS) error {
	return m.Range(func(k, v string) error {
		out, err := x.expand(v)
		if err != nil {
			return err
		}
		m.Set(k, out)
		return nil
	})
}
