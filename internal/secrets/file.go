package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/gantry-ci/gantry/env"
	"github.com/joho/godotenv"
)

// File is a variables file on disk. Both dotenv files (KEY=value lines) and
// shell export dumps (declare -x lines, as written by export -p) are
// accepted.
type File struct {
	path string
	env  *env.Environment
}

// FromFile loads the variables file at path, sniffing the format from its
// first line.
func FromFile(path string) (*File, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	e, err := parseVars(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &File{path: path, env: e}, nil
}

func parseVars(body string) (*env.Environment, error) {
	if isExportFormat(body) {
		return env.FromExport(body), nil
	}

	vars, err := godotenv.Unmarshal(body)
	if err != nil {
		return nil, err
	}
	return env.FromMap(vars), nil
}

// isExportFormat reports whether body looks like export -p output rather than
// a dotenv file.
func isExportFormat(body string) bool {
	line, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	return strings.HasPrefix(line, "declare -")
}

func (f *File) Get(key string) (string, bool) { return f.env.Get(key) }

func (f *File) Name() string { return "file " + f.path }
