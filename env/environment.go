// Package env provides storage and parsing for environment variables.
//
// It is intended for internal use by gantry only.
package env

import (
	"runtime"
	"sort"
	"strings"

	"github.com/puzpuzpuz/xsync/v2"
)

// Environment is a concurrency-safe map of environment variables. Lookups
// are case-insensitive on Windows, matching how the OS itself resolves
// variable names, and case-sensitive everywhere else.
type Environment struct {
	vars *xsync.MapOf[string, string]
}

// New returns an empty environment.
func New() *Environment {
	return &Environment{vars: xsync.NewMapOf[string]()}
}

// NewWithLength returns an empty environment sized for length entries.
func NewWithLength(length int) *Environment {
	return &Environment{vars: xsync.NewMapOfPresized[string](length)}
}

// FromMap builds an environment from a map of names to values.
func FromMap(m map[string]string) *Environment {
	env := NewWithLength(len(m))
	for k, v := range m {
		env.Set(k, v)
	}
	return env
}

// FromSlice builds an environment from NAME=value entries, the shape
// os.Environ returns. Entries without '=' are skipped.
func FromSlice(s []string) *Environment {
	env := NewWithLength(len(s))
	for _, l := range s {
		if k, v, ok := Split(l); ok {
			env.Set(k, v)
		}
	}
	return env
}

// Split splits a NAME=value entry into its name and value. ok is false when
// there is no '=' at all, or when the first '=' starts the entry: Windows
// process environments contain oddities like "=C:=C:\"
// (https://github.com/golang/go/issues/49886), which are dropped rather than
// given empty names.
func Split(l string) (name, value string, ok bool) {
	i := strings.IndexRune(l, '=')
	if i <= 0 {
		return "", "", false
	}
	return l[:i], l[i+1:], true
}

// Get returns the value for name and whether it was present.
func (e *Environment) Get(name string) (string, bool) {
	v, ok := e.vars.Load(normalize(name))
	return v, ok
}

// Exists reports whether name is present, even with an empty value.
func (e *Environment) Exists(name string) bool {
	_, ok := e.vars.Load(normalize(name))
	return ok
}

// Set stores value under name, replacing any previous value.
func (e *Environment) Set(name, value string) {
	e.vars.Store(normalize(name), value)
}

// Length returns the number of variables in the environment.
func (e *Environment) Length() int {
	return e.vars.Size()
}

// ToSlice returns the environment as a sorted slice of NAME=value entries.
func (e *Environment) ToSlice() []string {
	s := make([]string, 0, e.vars.Size())
	e.vars.Range(func(k, v string) bool {
		s = append(s, k+"="+v)
		return true
	})
	sort.Strings(s)
	return s
}

// Windows treats environment variable names case-insensitively: PATH, Path
// and pAtH all name the same variable, and SET output mixes CamelCase with
// UPPERCASE freely. os.Environ preserves whatever casing a variable was
// created with, so without normalization Get("PATH") could miss a variable
// stored as "Path". Names are upper-cased on the way in and out there so
// lookups behave like the OS. Unix environments are case-sensitive, and
// names pass through untouched.
func normalize(name string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(name)
	}
	return name
}
