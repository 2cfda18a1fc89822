package descriptor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/buildkite/interpolate"
	"github.com/gantry-ci/gantry/internal/ordered"
)

// Stage names used in rendered output. Deployment commands are tagged
// "deployment/<target>".
const (
	StageDependencies = "dependencies"
	StageTest         = "test"
	stageDeployPrefix = "deployment/"
)

// DeployStageName returns the rendered-output stage name for a deployment
// target.
func DeployStageName(target string) string {
	return stageDeployPrefix + target
}

// RenderInput carries everything Render needs besides the descriptor itself.
type RenderInput struct {
	// Branch the run was triggered from. Deployment targets whose branch
	// guard doesn't match are left out of the output.
	Branch string

	// Secrets resolves interpolation identifiers in commands. It takes
	// precedence over machine.environment. A nil Secrets resolves nothing.
	Secrets interpolate.Env
}

// Command is one rendered shell command, tagged with the stage it came from.
type Command struct {
	Stage string `json:"stage" yaml:"stage"`
	Text  string `json:"text" yaml:"text"`
}

// RenderResult is the ordered command sequence for one run, ready to hand to
// a runner.
type RenderResult struct {
	// Commands in execution order: dependencies, test, then each matching
	// deployment target in document order.
	Commands []Command `json:"commands" yaml:"commands"`

	// Triggered reports whether the branch passes general.branches gating.
	// It is informational: whether to run anything at all on an untriggered
	// branch is the runner's call, so build and test commands are rendered
	// either way.
	Triggered bool `json:"triggered" yaml:"triggered"`
}

// MissingSecretError is returned by Render when a deployment target's
// commands require secrets the given sources cannot resolve. It names every
// missing key for the first failing target.
type MissingSecretError struct {
	Target string
	Keys   []string
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("deployment target %q requires secrets that are not set: %s", e.Target, strings.Join(e.Keys, ", "))
}

// Render produces the ordered command sequence for one run. Dependencies and
// test commands are always included; each deployment target is included only
// when its branch guard matches in.Branch. Every included command has its
// interpolation expansions resolved against machine.environment overlaid with
// in.Secrets (secrets win).
//
// Secret substitution is keyed and loud: before a deployment target is
// rendered, every identifier its commands hard-require must resolve, or
// Render fails with a MissingSecretError naming the absent keys. Dependencies
// and test commands keep shell semantics instead (unset variables become
// empty strings), since they typically lean on runner-provided context.
func (p *Pipeline) Render(in RenderInput) (*RenderResult, error) {
	envMap, err := p.renderEnv(in.Secrets)
	if err != nil {
		return nil, err
	}
	x := expander{env: envMap}

	res := &RenderResult{
		Triggered: p.Triggers(in.Branch),
	}

	appendStage := func(stage string, cmds []string) error {
		for _, cmd := range cmds {
			out, err := x.expand(cmd)
			if err != nil {
				return fmt.Errorf("interpolating %s command: %w", stage, err)
			}
			res.Commands = append(res.Commands, Command{Stage: stage, Text: out})
		}
		return nil
	}

	if err := appendStage(StageDependencies, p.Dependencies.Commands()); err != nil {
		return nil, err
	}
	if err := appendStage(StageTest, p.Test.Commands()); err != nil {
		return nil, err
	}

	err = p.Deployment.Range(func(target string, d *Deployment) error {
		if d == nil || !d.Matches(in.Branch) {
			return nil
		}

		req, err := targetRequirements(target, d)
		if err != nil {
			return err
		}
		if missing := req.missingFrom(envMap); len(missing) > 0 {
			return &MissingSecretError{Target: target, Keys: missing}
		}

		return appendStage(DeployStageName(target), d.Commands)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// renderEnv builds the variable set commands are interpolated against:
// machine.environment at the bottom, the caller's secrets on top. The machine
// environment is itself interpolated against the secrets first, so descriptor
// variables can reference caller-provided values. The descriptor is not
// mutated.
func (p *Pipeline) renderEnv(secrets interpolate.Env) (interpolate.Env, error) {
	if secrets == nil {
		secrets = mapEnv{}
	}

	if p.Machine == nil || p.Machine.Environment.Len() == 0 {
		return secrets, nil
	}

	menv := ordered.NewMap[string, string](p.Machine.Environment.Len())
	p.Machine.Environment.Range(func(k, v string) error {
		menv.Set(k, v)
		return nil
	})
	if err := (expander{env: secrets}).expandValues(menv); err != nil {
		return nil, fmt.Errorf("interpolating machine environment: %w", err)
	}

	return overlayEnv{layers: []interpolate.Env{secrets, mapEnv{m: menv}}}, nil
}

// SecretRequirement describes the interpolation identifiers one deployment
// target's commands reference.
type SecretRequirement struct {
	Target string

	// Required keys are referenced with no fallback: $KEY, ${KEY}, or
	// ${KEY?message}. Rendering the target fails unless all of them resolve.
	Required []string

	// Optional keys are only ever referenced in forms that substitute
	// something when the key is unset: ${KEY-d}, ${KEY:-d}, and the substring
	// expansions.
	Optional []string
}

// missingFrom returns the required keys that env cannot resolve.
func (r *SecretRequirement) missingFrom(env interpolate.Env) []string {
	var missing []string
	for _, key := range r.Required {
		if _, ok := env.Get(key); !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// SecretRequirements lists, for each deployment target whose branch guard
// matches branch, the interpolation identifiers its commands reference. It
// lets callers check secret availability without rendering (and without ever
// reading secret values).
func (p *Pipeline) SecretRequirements(branch string) ([]SecretRequirement, error) {
	var reqs []SecretRequirement
	err := p.Deployment.Range(func(target string, d *Deployment) error {
		if d == nil || !d.Matches(branch) {
			return nil
		}
		req, err := targetRequirements(target, d)
		if err != nil {
			return err
		}
		reqs = append(reqs, *req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func targetRequirements(target string, d *Deployment) (*SecretRequirement, error) {
	required := make(map[string]bool)
	referenced := make(map[string]bool)

	for _, cmd := range d.Commands {
		ids, err := interpolate.Identifiers(cmd)
		if err != nil {
			return nil, fmt.Errorf("parsing interpolation in %q commands: %w", target, err)
		}
		for _, id := range ids {
			// Escaped expansions ($$KEY) are reported with a single leading
			// dollar. They are literal text for the runtime shell, not ours
			// to resolve.
			if strings.HasPrefix(id, "$") {
				continue
			}
			referenced[id] = true
			if requiredIn(cmd, id) {
				required[id] = true
			}
		}
	}

	req := &SecretRequirement{Target: target}
	for id := range referenced {
		if required[id] {
			req.Required = append(req.Required, id)
		} else {
			req.Optional = append(req.Optional, id)
		}
	}
	slices.Sort(req.Required)
	slices.Sort(req.Optional)
	return req, nil
}

// requiredIn reports whether cmd references key in a form with no fallback:
// $KEY, ${KEY}, or ${KEY?message}. The defaulting and substring forms
// (${KEY-d}, ${KEY:-d}, ${KEY:7}, ...) substitute something even when the key
// is unset, so they don't make it required.
func requiredIn(cmd, key string) bool {
	for i := 0; i < len(cmd); {
		j := strings.IndexByte(cmd[i:], '$')
		if j < 0 {
			return false
		}
		i += j + 1
		if i >= len(cmd) {
			return false
		}
		// Skip both escape forms: $$ and \$.
		if cmd[i] == '$' {
			i++
			continue
		}
		if i >= 2 && cmd[i-2] == '\\' {
			continue
		}

		rest := cmd[i:]
		switch {
		case strings.HasPrefix(rest, key):
			end := i + len(key)
			if end >= len(cmd) || !isIdentifierChar(cmd[end]) {
				return true
			}

		case strings.HasPrefix(rest, "{"+key):
			end := i + 1 + len(key)
			if end < len(cmd) && (cmd[end] == '}' || cmd[end] == '?') {
				return true
			}
		}
	}
	return false
}

func isIdentifierChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// mapEnv adapts an ordered string map to the interpolate.Env interface. The
// zero value resolves nothing.
type mapEnv struct {
	m *ordered.MapSS
}

func (e mapEnv) Get(key string) (string, bool) {
	return e.m.Get(key)
}

// overlayEnv resolves from the first layer that has the key.
type overlayEnv struct {
	layers []interpolate.Env
}

func (e overlayEnv) Get(key string) (string, bool) {
	for _, layer := range e.layers {
		if v, ok := layer.Get(key); ok {
			return v, true
		}
	}
	return "", false
}
