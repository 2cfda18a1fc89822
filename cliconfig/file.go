package cliconfig

import (
	"fmt"
	"os"

	"github.com/gantry-ci/gantry/internal/osutil"
	"github.com/joho/godotenv"
)

// File is a dotenv-style configuration file: one KEY=value pair per line,
// with #-comments. Keys are flag names.
type File struct {
	// Path to the file. A leading ~ is expanded.
	Path string

	// Config holds the parsed key/value pairs after Load.
	Config map[string]string
}

// Load reads and parses the file into f.Config.
func (f *File) Load() error {
	abs, err := f.AbsolutePath()
	if err != nil {
		return fmt.Errorf("resolving %s: %w", f.Path, err)
	}

	file, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("opening file %s: %w", f.Path, err)
	}
	defer file.Close() //nolint:errcheck // read-only handle

	cfg, err := godotenv.Parse(file)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	f.Config = cfg
	return nil
}

// AbsolutePath is the expanded, absolute form of f.Path.
func (f *File) AbsolutePath() (string, error) {
	return osutil.NormalizeFilePath(f.Path)
}

// Exists reports whether the file is present on disk.
func (f *File) Exists() bool {
	abs, err := f.AbsolutePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}
