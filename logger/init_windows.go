//go:build windows

package logger

import (
	"os"

	"golang.org/x/sys/windows"
)

// Windows 10 build 16257 and later can interpret ANSI color sequences, but
// only once virtual terminal processing is switched on for the console. If
// it can't be switched on, colors stay off.
func init() {
	stdout := windows.Handle(os.Stdout.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(stdout, &mode); err != nil {
		return
	}

	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	if err := windows.SetConsoleMode(stdout, mode); err != nil {
		return
	}
	windowsColors = true
}
