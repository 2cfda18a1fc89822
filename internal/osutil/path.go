package osutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// NormalizeFilePath expands a leading "~" in the path and returns its
// absolute form. Empty paths are passed through untouched.
func NormalizeFilePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}

	return filepath.Abs(expanded)
}

// NormalizeCommand normalizes a command path the same way NormalizeFilePath
// does, but only when it actually looks like a path. Bare command names are
// left alone so they can be found with a PATH lookup.
func NormalizeCommand(commandPath string) (string, error) {
	if commandPath == "" {
		return "", nil
	}

	if strings.HasPrefix(commandPath, "~") || strings.ContainsRune(commandPath, os.PathSeparator) {
		return NormalizeFilePath(commandPath)
	}

	return commandPath, nil
}

// ExpandHome replaces a leading "~" in the path with the current user's home
// directory. Paths not starting with "~" are returned as-is. The "~user" form
// is not supported.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	if len(path) > 1 && path[1] != '/' && path[1] != '\\' {
		return "", errors.New("cannot expand the home dir of another user")
	}

	dir, err := UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, path[1:]), nil
}
