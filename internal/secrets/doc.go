// Package secrets resolves the template variables used when rendering
// deployment commands.
//
// Nothing here reads the process environment implicitly: every source of
// variables is constructed explicitly, and commands that want ambient
// variables opt in with FromProcess. Diagnostics name keys and sources,
// never values.
//
// The package is internal to gantry; its API is unstable.
package secrets
