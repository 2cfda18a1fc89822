package descriptor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gantry-ci/gantry/internal/ordered"
	"gopkg.in/yaml.v3"
)

// Parse decodes one pipeline descriptor from src. Nothing is interpolated at
// this stage; that happens at render time, when the branch and secrets are
// known.
func Parse(src io.Reader) (*Pipeline, error) {
	// Decode to a raw *yaml.Node rather than straight into the structs.
	// ordered.Unmarshal then walks the node, resolving anchors and merge keys
	// (which plain struct decoding would mishandle) and preserving mapping
	// order on the way into the typed model.
	n := new(yaml.Node)
	if err := yaml.NewDecoder(src).Decode(n); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty input")
		}
		// yaml.v3 prefixes every message with "yaml: "; the CLI already says
		// where the document came from.
		return nil, errors.New(strings.TrimPrefix(err.Error(), "yaml: "))
	}

	p := new(Pipeline)
	return p, ordered.Unmarshal(n, p)
}

// ParseFile parses the pipeline descriptor in the named file.
func ParseFile(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}
