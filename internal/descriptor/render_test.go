package descriptor

import (
	"errors"
	"strings"
	"testing"

	"github.com/gantry-ci/gantry/internal/ordered"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releaseDescriptor = `---
machine:
  environment:
    PROJECT: widgets
    INDEX_URL: https://upload.pypi.example/legacy/

general:
  branches:
    only:
      - master

dependencies:
  override:
    - pip install -r requirements.txt

test:
  override:
    - pytest -q

deployment:
  pypi:
    branch: master
    commands:
      - ./render-credentials --user "${PYPI_USERNAME}" --pass "${PYPI_PASSWORD}" --out ~/.pypirc
      - python setup.py sdist upload -r pypi
      - curl -s -X POST ${DOCS_WEBHOOK-https://docs.example/build}
`

func mustParse(t *testing.T, src string) *Pipeline {
	t.Helper()
	p, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse(src) error = %v", err)
	}
	return p
}

func secretsFrom(items ...ordered.TupleSS) mapEnv {
	return mapEnv{m: ordered.MapFromItems(items...)}
}

func TestRenderMatchingBranch(t *testing.T) {
	t.Parallel()

	p := mustParse(t, releaseDescriptor)
	secrets := secretsFrom(
		ordered.TupleSS{Key: "PYPI_USERNAME", Value: "deploy-bot"},
		ordered.TupleSS{Key: "PYPI_PASSWORD", Value: "hunter2"},
	)

	got, err := p.Render(RenderInput{Branch: "master", Secrets: secrets})
	require.NoError(t, err)

	want := &RenderResult{
		Triggered: true,
		Commands: []Command{
			{Stage: "dependencies", Text: "pip install -r requirements.txt"},
			{Stage: "test", Text: "pytest -q"},
			{Stage: "deployment/pypi", Text: `./render-credentials --user "deploy-bot" --pass "hunter2" --out ~/.pypirc`},
			{Stage: "deployment/pypi", Text: "python setup.py sdist upload -r pypi"},
			{Stage: "deployment/pypi", Text: "curl -s -X POST https://docs.example/build"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Render result diff (-got +want):\n%s", diff)
	}

	// Substitution is complete: no placeholder identifiers survive in the
	// rendered commands.
	for _, cmd := range got.Commands {
		for _, tok := range []string{"PYPI_USERNAME", "PYPI_PASSWORD", "DOCS_WEBHOOK"} {
			if strings.Contains(cmd.Text, tok) {
				t.Errorf("rendered command %q still contains %q", cmd.Text, tok)
			}
		}
	}
}

func TestRenderNonMatchingBranch(t *testing.T) {
	t.Parallel()

	p := mustParse(t, releaseDescriptor)
	secrets := secretsFrom(
		ordered.TupleSS{Key: "PYPI_USERNAME", Value: "deploy-bot"},
		ordered.TupleSS{Key: "PYPI_PASSWORD", Value: "hunter2"},
	)

	got, err := p.Render(RenderInput{Branch: "feature-x", Secrets: secrets})
	require.NoError(t, err)

	want := &RenderResult{
		Triggered: false,
		Commands: []Command{
			{Stage: "dependencies", Text: "pip install -r requirements.txt"},
			{Stage: "test", Text: "pytest -q"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Render result diff (-got +want):\n%s", diff)
	}
}

func TestRenderMissingSecret(t *testing.T) {
	t.Parallel()

	p := mustParse(t, releaseDescriptor)
	secrets := secretsFrom(
		ordered.TupleSS{Key: "PYPI_USERNAME", Value: "deploy-bot"},
	)

	got, err := p.Render(RenderInput{Branch: "master", Secrets: secrets})
	require.Error(t, err)
	assert.Nil(t, got)

	missing := new(MissingSecretError)
	require.True(t, errors.As(err, &missing), "Render error = %v, want MissingSecretError", err)
	assert.Equal(t, "pypi", missing.Target)
	assert.Equal(t, []string{"PYPI_PASSWORD"}, missing.Keys)
	assert.Equal(t, `deployment target "pypi" requires secrets that are not set: PYPI_PASSWORD`, missing.Error())
}

func TestRenderMachineEnvironment(t *testing.T) {
	t.Parallel()

	p := mustParse(t, `---
machine:
  environment:
    PROJECT: widgets
    RELEASE_TAG: ${VERSION}-final
test:
  - echo $PROJECT $RELEASE_TAG
deployment:
  docs:
    branch: main
    commands:
      - publish --tag ${RELEASE_TAG} --project ${PROJECT}
`)
	secrets := secretsFrom(
		ordered.TupleSS{Key: "VERSION", Value: "1.2.3"},
		ordered.TupleSS{Key: "PROJECT", Value: "widgets-pro"},
	)

	got, err := p.Render(RenderInput{Branch: "main", Secrets: secrets})
	require.NoError(t, err)

	want := &RenderResult{
		Triggered: true,
		Commands: []Command{
			// Secrets sit on top of machine.environment, so the caller's
			// PROJECT wins over the descriptor's.
			{Stage: "test", Text: "echo widgets-pro 1.2.3-final"},
			{Stage: "deployment/docs", Text: "publish --tag 1.2.3-final --project widgets-pro"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Render result diff (-got +want):\n%s", diff)
	}

	// The descriptor itself is untouched: machine.environment still holds the
	// uninterpolated value.
	tag, ok := p.Machine.Environment.Get("RELEASE_TAG")
	require.True(t, ok)
	assert.Equal(t, "${VERSION}-final", tag)
}

func TestRenderLeavesShellConstructsAlone(t *testing.T) {
	t.Parallel()

	p := mustParse(t, `---
test:
  - docker run -v $(pwd):/project acme/widgets tox
  - echo $$HOME is home
`)

	got, err := p.Render(RenderInput{Branch: "whatever"})
	require.NoError(t, err)

	want := &RenderResult{
		Triggered: true,
		Commands: []Command{
			// Subshell constructs aren't expansions, and $$ is the escape for
			// a literal dollar.
			{Stage: "test", Text: "docker run -v $(pwd):/project acme/widgets tox"},
			{Stage: "test", Text: "echo $HOME is home"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Render result diff (-got +want):\n%s", diff)
	}
}

func TestRenderSkipsUnguardedTargets(t *testing.T) {
	t.Parallel()

	p := mustParse(t, `---
test:
  - make check
deployment:
  nowhere:
    commands:
      - ./deploy.sh
`)

	got, err := p.Render(RenderInput{Branch: "master"})
	require.NoError(t, err)

	want := &RenderResult{
		Triggered: true,
		Commands: []Command{
			{Stage: "test", Text: "make check"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Render result diff (-got +want):\n%s", diff)
	}
}

func TestRenderInterpolationError(t *testing.T) {
	t.Parallel()

	p := mustParse(t, `---
test:
  - echo $123
`)

	_, err := p.Render(RenderInput{Branch: "master"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interpolating test command")
}

func TestSecretRequirements(t *testing.T) {
	t.Parallel()

	p := mustParse(t, releaseDescriptor)

	got, err := p.SecretRequirements("master")
	require.NoError(t, err)

	want := []SecretRequirement{
		{
			Target:   "pypi",
			Required: []string{"PYPI_PASSWORD", "PYPI_USERNAME"},
			Optional: []string{"DOCS_WEBHOOK"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("SecretRequirements(master) diff (-got +want):\n%s", diff)
	}

	// No target matches feature branches, so nothing is required.
	got, err = p.SecretRequirements("feature-x")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRequiredIn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  string
		key  string
		want bool
	}{
		{cmd: "deploy $TOKEN now", key: "TOKEN", want: true},
		{cmd: "deploy $TOKEN", key: "TOKEN", want: true},
		{cmd: "deploy ${TOKEN} now", key: "TOKEN", want: true},
		{cmd: "deploy ${TOKEN?set me} now", key: "TOKEN", want: true},
		{cmd: "deploy ${TOKEN-fallback} now", key: "TOKEN", want: false},
		{cmd: "deploy ${TOKEN:-fallback} now", key: "TOKEN", want: false},
		{cmd: "deploy ${TOKEN:0:4} now", key: "TOKEN", want: false},
		{cmd: "echo $$TOKEN", key: "TOKEN", want: false},
		{cmd: `echo \$TOKEN`, key: "TOKEN", want: false},
		{cmd: "echo $TOKENS", key: "TOKEN", want: false},
		{cmd: "echo ${TOKENS}", key: "TOKEN", want: false},
		{cmd: "${TOKEN:-x} then ${TOKEN}", key: "TOKEN", want: true},
		{cmd: "no dollars here", key: "TOKEN", want: false},
	}

	for _, test := range tests {
		if got := requiredIn(test.cmd, test.key); got != test.want {
			t.Errorf("requiredIn(%q, %q) = %t, want %t", test.cmd, test.key, got, test.want)
		}
	}
}
