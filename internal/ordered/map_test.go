package ordered

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestMapGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc   string
		input  *MapSS
		key    string
		want   string
		wantOk bool
	}{
		{
			desc:   "nil map",
			input:  nil,
			key:    "ruby",
			want:   "",
			wantOk: false,
		},
		{
			desc:   "empty map",
			input:  NewMap[string, string](4),
			key:    "ruby",
			want:   "",
			wantOk: false,
		},
		{
			desc:   "zero map",
			input:  new(MapSS),
			key:    "ruby",
			want:   "",
			wantOk: false,
		},
		{
			desc: "present key",
			input: MapFromItems(
				TupleSS{Key: "ruby", Value: "3.2.2"},
			),
			key:    "ruby",
			want:   "3.2.2",
			wantOk: true,
		},
		{
			desc: "absent key",
			input: MapFromItems(
				TupleSS{Key: "python", Value: "3.11"},
			),
			key:    "ruby",
			want:   "",
			wantOk: false,
		},
		{
			desc: "several keys",
			input: MapFromItems(
				TupleSS{Key: "timezone", Value: "UTC"},
				TupleSS{Key: "ruby", Value: "3.2.2"},
				TupleSS{Key: "node", Value: "20.5"},
			),
			key:    "ruby",
			want:   "3.2.2",
			wantOk: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			got, ok := test.input.Get(test.key)
			if got != test.want || ok != test.wantOk {
				t.Errorf("input.Get(%q) = %q, %t, want %q, %t", test.key, got, ok, test.want, test.wantOk)
			}
		})
	}
}

func TestMapSet(t *testing.T) {
	t.Parallel()

	m := NewMap[string, string](0)
	m.Set("RAILS_ENV", "test")
	m.Set("RACK_ENV", "test")
	m.Set("COVERAGE", "1")

	// Updating an existing key must keep its original position.
	m.Set("RACK_ENV", "development")

	want := []TupleSS{
		{Key: "RAILS_ENV", Value: "test"},
		{Key: "RACK_ENV", Value: "development"},
		{Key: "COVERAGE", Value: "1"},
	}

	if got, want := m.Len(), len(want); got != want {
		t.Errorf("m.Len() = %d, want %d", got, want)
	}

	var got []TupleSS
	err := m.Range(func(k, v string) error {
		got = append(got, TupleSS{Key: k, Value: v})
		return nil
	})
	if err != nil {
		t.Fatalf("m.Range(append to got) = %v", err)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("entries after Set diff (-got +want):\n%s", diff)
	}

	if v, ok := m.Get("RACK_ENV"); !ok || v != "development" {
		t.Errorf(`m.Get("RACK_ENV") = (%q, %t), want ("development", true)`, v, ok)
	}
}

func TestMapLenIsZero(t *testing.T) {
	t.Parallel()

	var nilMap *MapSS
	if got, want := nilMap.Len(), 0; got != want {
		t.Errorf("nilMap.Len() = %d, want %d", got, want)
	}
	if !nilMap.IsZero() {
		t.Errorf("nilMap.IsZero() = false, want true")
	}

	empty := NewMap[string, string](8)
	if !empty.IsZero() {
		t.Errorf("empty.IsZero() = false, want true")
	}

	one := MapFromItems(TupleSS{Key: "branch", Value: "main"})
	if got, want := one.Len(), 1; got != want {
		t.Errorf("one.Len() = %d, want %d", got, want)
	}
	if one.IsZero() {
		t.Errorf("one.IsZero() = true, want false")
	}
}

func TestMapRange(t *testing.T) {
	t.Parallel()

	m := MapFromItems(
		TupleSS{Key: "checkout", Value: "git clone"},
		TupleSS{Key: "bundle", Value: "bundle install"},
		TupleSS{Key: "test", Value: "bundle exec rake"},
	)

	var keys []string
	if err := m.Range(func(k, v string) error {
		keys = append(keys, k)
		return nil
	}); err != nil {
		t.Fatalf("m.Range(append keys) = %v", err)
	}
	if diff := cmp.Diff(keys, []string{"checkout", "bundle", "test"}); diff != "" {
		t.Errorf("ranged keys diff (-got +want):\n%s", diff)
	}

	// An error from the callback stops the walk and is passed through.
	sentinel := errors.New("stop here")
	calls := 0
	err := m.Range(func(k, v string) error {
		calls++
		if calls == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("m.Range(stop at 2) error = %v, want %v", err, sentinel)
	}
	if calls != 2 {
		t.Errorf("callback ran %d times, want 2", calls)
	}

	// Ranging over nil visits nothing.
	var nilMap *MapSS
	if err := nilMap.Range(func(k, v string) error {
		return errors.New("should not be called")
	}); err != nil {
		t.Errorf("nilMap.Range(fail) = %v, want nil", err)
	}
}

func TestMapEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		a, b *MapSS
		want bool
	}{
		{
			desc: "both nil",
			a:    nil,
			b:    nil,
			want: true,
		},
		{
			desc: "nil and empty are equal",
			a:    nil,
			b:    NewMap[string, string](0),
			want: true,
		},
		{
			desc: "same entries",
			a: MapFromItems(
				TupleSS{Key: "DEPLOY_ENV", Value: "staging"},
				TupleSS{Key: "REGION", Value: "us-east-1"},
			),
			b: MapFromItems(
				TupleSS{Key: "DEPLOY_ENV", Value: "staging"},
				TupleSS{Key: "REGION", Value: "us-east-1"},
			),
			want: true,
		},
		{
			desc: "different values",
			a: MapFromItems(
				TupleSS{Key: "DEPLOY_ENV", Value: "staging"},
			),
			b: MapFromItems(
				TupleSS{Key: "DEPLOY_ENV", Value: "production"},
			),
			want: false,
		},
		{
			desc: "same entries, different order",
			a: MapFromItems(
				TupleSS{Key: "DEPLOY_ENV", Value: "staging"},
				TupleSS{Key: "REGION", Value: "us-east-1"},
			),
			b: MapFromItems(
				TupleSS{Key: "REGION", Value: "us-east-1"},
				TupleSS{Key: "DEPLOY_ENV", Value: "staging"},
			),
			want: false,
		},
		{
			desc: "one is a prefix of the other",
			a: MapFromItems(
				TupleSS{Key: "DEPLOY_ENV", Value: "staging"},
			),
			b: MapFromItems(
				TupleSS{Key: "DEPLOY_ENV", Value: "staging"},
				TupleSS{Key: "REGION", Value: "us-east-1"},
			),
			want: false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			if got := Equal(test.a, test.b); got != test.want {
				t.Errorf("Equal(a, b) = %t, want %t", got, test.want)
			}
		})
	}
}

func TestMapEqualNested(t *testing.T) {
	t.Parallel()

	a := MapFromItems(
		TupleSA{Key: "services", Value: []any{"postgresql", "redis"}},
		TupleSA{Key: "environment", Value: MapFromItems(
			TupleSA{Key: "TZ", Value: "UTC"},
		)},
	)
	b := MapFromItems(
		TupleSA{Key: "services", Value: []any{"postgresql", "redis"}},
		TupleSA{Key: "environment", Value: MapFromItems(
			TupleSA{Key: "TZ", Value: "UTC"},
		)},
	)
	if !EqualSA(a, b) {
		t.Errorf("EqualSA(a, b) = false, want true")
	}

	b.Set("services", []any{"postgresql"})
	if EqualSA(a, b) {
		t.Errorf("EqualSA(a, b) = true after changing b, want false")
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc  string
		input *MapSA
		want  string
	}{
		{
			desc:  "empty map",
			input: NewMap[string, any](0),
			want:  `{}`,
		},
		{
			desc: "one entry",
			input: MapFromItems(
				TupleSA{Key: "timezone", Value: "America/New_York"},
			),
			want: `{"timezone":"America/New_York"}`,
		},
		{
			desc: "insertion order is not alphabetical order",
			input: MapFromItems(
				TupleSA{Key: "test", Value: "rake"},
				TupleSA{Key: "dependencies", Value: "bundler"},
				TupleSA{Key: "machine", Value: "xenial"},
			),
			want: `{"test":"rake","dependencies":"bundler","machine":"xenial"}`,
		},
		{
			desc: "nested values",
			input: MapFromItems(
				TupleSA{Key: "name", Value: "deploy"},
				TupleSA{Key: "timeout", Value: 300},
				TupleSA{Key: "env", Value: MapFromItems(
					TupleSA{Key: "RAILS_ENV", Value: "production"},
				)},
				TupleSA{Key: "commands", Value: []any{"bundle exec cap deploy"}},
				TupleSA{Key: "owner", Value: nil},
				TupleSA{Key: "notify", Value: true},
			),
			want: `{"name":"deploy","timeout":300,"env":{"RAILS_ENV":"production"},"commands":["bundle exec cap deploy"],"owner":null,"notify":true}`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(test.input)
			if err != nil {
				t.Fatalf("json.Marshal(input) error = %v", err)
			}
			if string(got) != test.want {
				t.Errorf("json.Marshal(input) = %s, want %s", got, test.want)
			}
		})
	}
}

func TestMarshalJSONNil(t *testing.T) {
	t.Parallel()

	var m *MapSA
	got, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("json.Marshal(nil map) error = %v", err)
	}
	if want := `null`; string(got) != want {
		t.Errorf("json.Marshal(nil map) = %s, want %s", got, want)
	}
}

func TestMarshalYAML(t *testing.T) {
	t.Parallel()

	m := MapFromItems(
		TupleSA{Key: "machine", Value: MapFromItems(
			TupleSA{Key: "timezone", Value: "UTC"},
		)},
		TupleSA{Key: "services", Value: []string{"postgresql", "redis"}},
		TupleSA{Key: "build_dir", Value: "/home/ci/app"},
	)

	got, err := yaml.Marshal(m)
	if err != nil {
		t.Fatalf("yaml.Marshal(m) error = %v", err)
	}
	want := `machine:
    timezone: UTC
services:
    - postgresql
    - redis
build_dir: /home/ci/app
`
	if string(got) != want {
		t.Errorf("yaml.Marshal(m) = %q, want %q", got, want)
	}
}

func TestMapUnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc  string
		input string
		want  *MapSA
	}{
		{
			desc: "keys stay in document order",
			input: `---
test: rake
dependencies: bundler
machine: xenial
general: {}
`,
			want: MapFromItems(
				TupleSA{Key: "test", Value: "rake"},
				TupleSA{Key: "dependencies", Value: "bundler"},
				TupleSA{Key: "machine", Value: "xenial"},
				TupleSA{Key: "general", Value: NewMap[string, any](0)},
			),
		},
		{
			desc: "nested mappings and sequences",
			input: `---
matrix:
  - linux
  - macos
  - os: windows
    arch: amd64
`,
			want: MapFromItems(
				TupleSA{Key: "matrix", Value: []any{
					"linux",
					"macos",
					MapFromItems(
						TupleSA{Key: "os", Value: "windows"},
						TupleSA{Key: "arch", Value: "amd64"},
					),
				}},
			),
		},
		{
			desc: "aliases resolve to the nearest anchor",
			input: `first: &img jammy
second: *img
third: &img noble
fourth: *img`,
			want: MapFromItems(
				TupleSA{Key: "first", Value: "jammy"},
				TupleSA{Key: "second", Value: "jammy"},
				TupleSA{Key: "third", Value: "noble"},
				TupleSA{Key: "fourth", Value: "noble"},
			),
		},
		{
			desc: "merge key, entries at the level win",
			input: `---
defaults: &defaults
  ruby: 3.2.2
  timezone: UTC
build:
  << : *defaults
  timezone: America/New_York`,
			want: MapFromItems(
				TupleSA{Key: "defaults", Value: MapFromItems(
					TupleSA{Key: "ruby", Value: "3.2.2"},
					TupleSA{Key: "timezone", Value: "UTC"},
				)},
				TupleSA{Key: "build", Value: MapFromItems(
					TupleSA{Key: "ruby", Value: "3.2.2"},
					TupleSA{Key: "timezone", Value: "America/New_York"},
				)},
			),
		},
		{
			desc: "merge sequence, earlier aliases win",
			input: `---
unit: &unit
  suite: unit
  retries: 1
lint: &lint
  suite: lint
all:
  << : [*unit, *lint]`,
			want: MapFromItems(
				TupleSA{Key: "unit", Value: MapFromItems(
					TupleSA{Key: "suite", Value: "unit"},
					TupleSA{Key: "retries", Value: 1},
				)},
				TupleSA{Key: "lint", Value: MapFromItems(
					TupleSA{Key: "suite", Value: "lint"},
				)},
				TupleSA{Key: "all", Value: MapFromItems(
					TupleSA{Key: "suite", Value: "unit"},
					TupleSA{Key: "retries", Value: 1},
				)},
			),
		},
		{
			desc: "merging a map into itself terminates",
			input: `---
base: &base
  image: alpine
  << : *base`,
			want: MapFromItems(
				TupleSA{Key: "base", Value: MapFromItems(
					TupleSA{Key: "image", Value: "alpine"},
				)},
			),
		},
		{
			desc: "non-string keys are canonicalised",
			input: `---
name: api
!!int 8080: web
!!bool true: enabled
.inf: boundless
.nan: undefined`,
			want: MapFromItems(
				TupleSA{Key: "name", Value: "api"},
				TupleSA{Key: "8080", Value: "web"},
				TupleSA{Key: "true", Value: "enabled"},
				TupleSA{Key: "+Inf", Value: "boundless"},
				TupleSA{Key: "NaN", Value: "undefined"},
			),
		},
		{
			desc: "scalar value styles",
			input: `---
parallel: TRUE
verbose: False
jobs: 0x10
timeout: 1_200
ratio: 0.25`,
			want: MapFromItems(
				TupleSA{Key: "parallel", Value: true},
				TupleSA{Key: "verbose", Value: false},
				TupleSA{Key: "jobs", Value: 16},
				TupleSA{Key: "timeout", Value: 1200},
				TupleSA{Key: "ratio", Value: 0.25},
			),
		},
		{
			desc: "literal block keeps newlines",
			input: `script: |
  bundle exec rake db:create
  bundle exec rake test`,
			want: MapFromItems(
				TupleSA{Key: "script", Value: "bundle exec rake db:create\nbundle exec rake test"},
			),
		},
		{
			desc: "folded block joins lines",
			input: `notes: >
  deploys to staging
  after tests pass`,
			want: MapFromItems(
				TupleSA{Key: "notes", Value: "deploys to staging after tests pass"},
			),
		},
		{
			desc: "flow mapping with omitted values",
			input: `{setup: "bundle install", https://rubygems.org,}`,
			want: MapFromItems(
				TupleSA{Key: "setup", Value: "bundle install"},
				TupleSA{Key: "https://rubygems.org", Value: nil},
			),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			got := NewMap[string, any](0)
			if err := yaml.Unmarshal([]byte(test.input), &got); err != nil {
				t.Fatalf("yaml.Unmarshal(input, &got) = %v", err)
			}
			if diff := cmp.Diff(got, test.want, cmp.Comparer(EqualSA)); diff != "" {
				t.Errorf("decoded map diff (-got +want):\n%s", diff)
			}
		})
	}
}

func TestMapUnmarshalYAMLTyped(t *testing.T) {
	t.Parallel()

	t.Run("string values", func(t *testing.T) {
		t.Parallel()

		input := `---
CI: "true"
GANTRY_BRANCH: main`
		got := NewMap[string, string](0)
		if err := yaml.Unmarshal([]byte(input), &got); err != nil {
			t.Fatalf("yaml.Unmarshal(input, &got) = %v", err)
		}
		want := MapFromItems(
			TupleSS{Key: "CI", Value: "true"},
			TupleSS{Key: "GANTRY_BRANCH", Value: "main"},
		)
		if diff := cmp.Diff(got, want, cmp.Comparer(EqualSS)); diff != "" {
			t.Errorf("decoded map diff (-got +want):\n%s", diff)
		}
	})

	t.Run("slice values", func(t *testing.T) {
		t.Parallel()

		input := `---
pre:
  - createdb myapp
override:
  - bundle exec rake`
		got := NewMap[string, []string](0)
		if err := yaml.Unmarshal([]byte(input), &got); err != nil {
			t.Fatalf("yaml.Unmarshal(input, &got) = %v", err)
		}
		want := MapFromItems(
			Tuple[string, []string]{Key: "pre", Value: []string{"createdb myapp"}},
			Tuple[string, []string]{Key: "override", Value: []string{"bundle exec rake"}},
		)
		if diff := cmp.Diff(got, want, cmp.Comparer(Equal[string, []string])); diff != "" {
			t.Errorf("decoded map diff (-got +want):\n%s", diff)
		}
	})
}

func TestMapUnmarshalYAMLRecursiveAlias(t *testing.T) {
	t.Parallel()

	input := `---
a: &a
  b: c
  d: *a`
	m := NewMap[string, any](0)
	if err := yaml.Unmarshal([]byte(input), &m); err == nil {
		t.Errorf("yaml.Unmarshal(%q, &m) error = nil, want alias cycle error", input)
	}
}
