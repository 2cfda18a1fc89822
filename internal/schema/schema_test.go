package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/gantry-ci/gantry/internal/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anyPathContains(issues []descriptor.Issue, fragment string) bool {
	for _, issue := range issues {
		if strings.Contains(issue.Path, fragment) {
			return true
		}
	}
	return false
}

func TestValidateCleanDocument(t *testing.T) {
	t.Parallel()

	issues, err := Validate(context.Background(), []byte(`---
machine:
  services:
    - docker
  environment:
    PROJECT: widgets
general:
  branches:
    only:
      - master
dependencies:
  - pip install -r requirements.txt
test:
  override:
    - pytest -q
deployment:
  pypi:
    branch: master
    commands:
      - python setup.py sdist upload -r pypi
`))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidateResolvesMergesFirst(t *testing.T) {
	t.Parallel()

	// The pypi target only satisfies the schema once the merge is applied,
	// so this passing means validation sees the effective document.
	issues, err := Validate(context.Background(), []byte(`---
defaults: &defaults
  branch: master
  commands:
    - make release
test:
  - make check
deployment:
  pypi:
    <<: *defaults
`))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidateFlagsDeploymentAsList(t *testing.T) {
	t.Parallel()

	issues, err := Validate(context.Background(), []byte(`---
test:
  - make check
deployment:
  - pypi
`))
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.True(t, anyPathContains(issues, "deployment"), "want an issue under deployment, got %v", issues)
	for _, issue := range issues {
		assert.Equal(t, descriptor.SeverityError, issue.Severity)
	}
}

func TestValidateFlagsBranchesTypo(t *testing.T) {
	t.Parallel()

	issues, err := Validate(context.Background(), []byte(`---
general:
  branches:
    only:
      - master
    onyl:
      - develop
test:
  - make check
`))
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.True(t, anyPathContains(issues, "general.branches"), "want an issue under general.branches, got %v", issues)
}

func TestValidateUnreadableDocuments(t *testing.T) {
	t.Parallel()

	_, err := Validate(context.Background(), []byte("key: %blah%"))
	require.Error(t, err)

	_, err = Validate(context.Background(), []byte(""))
	assert.EqualError(t, err, "empty document")
}

func TestPathFromPointer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ptr  string
		want string
	}{
		{ptr: "", want: "document"},
		{ptr: "/", want: "document"},
		{ptr: "/test", want: "test"},
		{ptr: "/deployment/pypi/commands/2", want: "deployment.pypi.commands[2]"},
		{ptr: "/a~1b/c", want: "a/b.c"},
	}

	for _, test := range tests {
		if got := pathFromPointer(test.ptr); got != test.want {
			t.Errorf("pathFromPointer(%q) = %q, want %q", test.ptr, got, test.want)
		}
	}
}
