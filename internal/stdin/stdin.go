// Package stdin provides a cross-platform way to check whether process
// stdin is readable.
package stdin

import (
	"os"
)

// IsReadable returns whether stdin has data that can be read, either from a
// pipe or from a redirected file. An interactive terminal is not considered
// readable, so commands can fall back to other input sources.
func IsReadable() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	// Stdin attached to a terminal shows up as a character device. Data piped
	// or redirected to it does not.
	// See https://stackoverflow.com/a/26567513
	return (fi.Mode() & os.ModeCharDevice) == 0
}
