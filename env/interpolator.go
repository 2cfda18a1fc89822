package env

import (
	"github.com/buildkite/interpolate"
)

// Interpolate expands variable references in s against the environment,
// following shell expansion rules ($VAR, ${VAR}, defaults, substrings).
// Unset variables expand to the empty string.
func (e *Environment) Interpolate(s string) (string, error) {
	return interpolate.Interpolate(e, s)
}
