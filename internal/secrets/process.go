package secrets

import (
	"os"

	"github.com/gantry-ci/gantry/env"
)

// Process exposes the process environment as a source. It is a distinct type
// so that commands inherit ambient variables only when asked to with --env.
type Process struct {
	env *env.Environment
}

// FromProcess captures the process environment at call time.
func FromProcess() *Process {
	return &Process{env: env.FromSlice(os.Environ())}
}

func (p *Process) Get(key string) (string, bool) { return p.env.Get(key) }

func (p *Process) Name() string { return "process environment" }
