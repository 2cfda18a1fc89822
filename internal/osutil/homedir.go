package osutil

import "os"

// UserHomeDir returns the current user's home directory. Unlike
// os.UserHomeDir, a set $HOME wins on every platform, including Windows,
// where Go would otherwise consult %USERPROFILE%.
func UserHomeDir() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	return os.UserHomeDir()
}
