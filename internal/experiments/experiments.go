// Package experiments tracks which experimental behaviours are switched on
// for a run.
//
// It is intended for internal use by gantry only.
package experiments

import (
	"context"

	"github.com/gantry-ci/gantry/logger"
)

// State describes how Enable treated an experiment name.
type State string

const (
	StateKnown    State = "known"
	StatePromoted State = "promoted"
	StateUnknown  State = "unknown"
)

// Experiments that can be enabled.
const (
	StrictBranchFilters = "strict-branch-filters"
)

// available maps each experiment to its promotion message. An empty message
// means the experiment is still live. A non-empty one means the behaviour
// has become standard, enabling it does nothing, and the message tells the
// user the flag can be dropped.
var available = map[string]string{
	StrictBranchFilters: "",
}

type ctxKey struct {
	experiment string
}

// Enable turns an experiment on in a new context and reports how the name
// was recognized.
func Enable(ctx context.Context, name string) (context.Context, State) {
	ctx = context.WithValue(ctx, ctxKey{name}, true)

	message, known := available[name]
	switch {
	case !known:
		return ctx, StateUnknown
	case message != "":
		return ctx, StatePromoted
	default:
		return ctx, StateKnown
	}
}

// EnableWithWarnings is Enable, logging a warning when the name is unknown
// or already promoted.
func EnableWithWarnings(ctx context.Context, l logger.Logger, name string) (context.Context, State) {
	ctx, state := Enable(ctx, name)
	switch state {
	case StateUnknown:
		l.Warn("No experiment named %q exists", name)
	case StatePromoted:
		l.Warn("%s", available[name])
	}
	return ctx, state
}

// IsEnabled reports whether ctx has the named experiment switched on.
func IsEnabled(ctx context.Context, name string) bool {
	enabled, ok := ctx.Value(ctxKey{name}).(bool)
	return ok && enabled
}
