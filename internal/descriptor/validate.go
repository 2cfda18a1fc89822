package descriptor

import (
	"context"
	"fmt"

	"github.com/buildkite/interpolate"
	"github.com/buildkite/shellwords"
	"github.com/gantry-ci/gantry/internal/experiments"
)

// Issue severities. Errors make a descriptor unusable, warnings flag likely
// mistakes, notices are informational.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNotice  Severity = "notice"
)

// Issue is one problem found in a descriptor. The path locates the offending
// part of the document, e.g. "deployment.pypi.commands[2]".
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Path     string   `json:"path" yaml:"path"`
	Message  string   `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// Errors reports whether any of the issues has error severity.
func Errors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the descriptor for content problems, accumulating every
// issue it can find rather than stopping at the first. A descriptor that
// parses can always be validated; Validate itself never fails.
//
// The context carries experiment state: under strict-branch-filters, branch
// gating divergence between general.branches and a deployment target's guard
// is an error instead of a warning.
func (p *Pipeline) Validate(ctx context.Context) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, v ...any) {
		issues = append(issues, Issue{
			Severity: sev,
			Path:     path,
			Message:  fmt.Sprintf(format, v...),
		})
	}

	if p.Machine != nil {
		seen := make(map[string]bool, len(p.Machine.Services))
		for _, svc := range p.Machine.Services {
			if seen[svc] {
				add(SeverityWarning, "machine.services", "service %q is listed more than once", svc)
			}
			seen[svc] = true
		}
	}

	if p.General != nil && p.General.Branches != nil {
		b := p.General.Branches
		if len(b.Only) == 0 && len(b.Ignore) == 0 {
			add(SeverityError, "general.branches", "branch gating is declared but lists no branches")
		}
	}

	p.validateStage(StageDependencies, p.Dependencies, add)
	p.validateStage(StageTest, p.Test, add)

	divergenceSev := SeverityWarning
	if experiments.IsEnabled(ctx, experiments.StrictBranchFilters) {
		divergenceSev = SeverityError
	}

	p.Deployment.Range(func(target string, d *Deployment) error {
		base := "deployment." + target
		if d == nil {
			add(SeverityError, base, "deployment target is empty")
			return nil
		}

		if d.Branch == "" {
			add(SeverityError, base+".branch", "deployment target has no branch guard, so it can never deploy")
		} else if p.General != nil && !p.General.Branches.Match(d.Branch) {
			add(divergenceSev, base+".branch", "branch %q never triggers a run under general.branches, so this target can never deploy", d.Branch)
		}

		if len(d.Commands) == 0 {
			add(SeverityError, base+".commands", "deployment target has no commands")
		}
		lintCommands(base+".commands", d.Commands, add)
		return nil
	})

	return issues
}

// validateStage flags stages that are declared but run nothing, and lints the
// commands of stages that aren't.
func (p *Pipeline) validateStage(name string, s *Stage, add func(sev Severity, path, format string, v ...any)) {
	if s == nil {
		return
	}
	if len(s.Commands()) == 0 {
		add(SeverityError, name, "stage is declared but has no commands")
		return
	}
	lintCommands(name+".pre", s.Pre, add)
	lintCommands(name+".override", s.Override, add)
	lintCommands(name+".post", s.Post, add)
}

// lintCommands checks each command for interpolation expressions that won't
// parse and for shell quoting that won't, either.
func lintCommands(path string, cmds []string, add func(sev Severity, path, format string, v ...any)) {
	for i, cmd := range cmds {
		at := fmt.Sprintf("%s[%d]", path, i)
		if cmd == "" {
			add(SeverityWarning, at, "command is empty")
			continue
		}
		if _, err := interpolate.Identifiers(cmd); err != nil {
			add(SeverityError, at, "invalid interpolation: %v", err)
		}
		if _, err := shellwords.SplitPosix(cmd); err != nil {
			add(SeverityWarning, at, "dubious shell quoting: %v", err)
		}
	}
}
