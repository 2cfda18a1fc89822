package experiments

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestEnableStates(t *testing.T) {
	t.Parallel()

	ctx, state := Enable(context.Background(), StrictBranchFilters)
	if state != StateKnown {
		t.Errorf("Enable(%q) state = %q, want %q", StrictBranchFilters, state, StateKnown)
	}
	if !IsEnabled(ctx, StrictBranchFilters) {
		t.Errorf("IsEnabled(%q) = false, want true", StrictBranchFilters)
	}

	if _, state := Enable(ctx, "warp-drive"); state != StateUnknown {
		t.Errorf("Enable(warp-drive) state = %q, want %q", state, StateUnknown)
	}

	if IsEnabled(context.Background(), StrictBranchFilters) {
		t.Error("IsEnabled on a fresh context = true, want false")
	}
}

// Every available experiment needs a section in EXPERIMENTS.md, so that
// --experiment has somewhere to point users.
func TestExperimentsAreDocumented(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile("../../EXPERIMENTS.md")
	if err != nil {
		t.Fatalf("os.ReadFile(EXPERIMENTS.md) = %v", err)
	}

	for name := range available {
		heading := fmt.Sprintf("### `%s`", name)
		if !strings.Contains(string(data), heading) {
			t.Errorf("experiment %q has no %q section in EXPERIMENTS.md", name, heading)
		}
	}
}
