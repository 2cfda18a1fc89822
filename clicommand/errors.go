package clicommand

import (
	"errors"
	"fmt"
	"os"
)

// An ExitError carries the status the process should exit with, alongside
// the error that caused it.
type ExitError struct {
	code  int
	inner error
}

func NewExitError(code int, err error) *ExitError {
	return &ExitError{code: code, inner: err}
}

func (e *ExitError) Code() int { return e.code }

func (e *ExitError) Error() string { return e.inner.Error() }

func (e *ExitError) Unwrap() error { return e.inner }

// Is matches any ExitError with the same code.
func (e *ExitError) Is(target error) bool {
	terr, ok := target.(*ExitError)
	return ok && e.code == terr.code
}

// A SilentExitError sets the exit status without printing anything. Commands
// use it when they have already reported the problem themselves.
type SilentExitError struct {
	code int
}

func NewSilentExitError(code int) *SilentExitError {
	return &SilentExitError{code: code}
}

// Error exists to satisfy the error interface. Nothing should print it.
func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit status %d (already reported)", e.code)
}

func (e *SilentExitError) Code() int { return e.code }

// Is matches any SilentExitError with the same code.
func (e *SilentExitError) Is(target error) bool {
	terr, ok := target.(*SilentExitError)
	return ok && e.code == terr.code
}

// ExitStatusFor turns a command's error into the process exit status,
// reporting it to stderr on the way. A nil error is status 0, a
// SilentExitError its code with no output, an ExitError its code after the
// message is printed, and any other error status 1.
func ExitStatusFor(err error) int {
	if err == nil {
		return 0
	}

	var serr *SilentExitError
	if errors.As(err, &serr) {
		return serr.Code()
	}

	fmt.Fprintf(os.Stderr, "gantry: fatal: %s\n", err)

	var eerr *ExitError
	if errors.As(err, &eerr) {
		return eerr.Code()
	}

	return 1
}
