package clicommand

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gantry-ci/gantry/internal/stdin"
	"github.com/gantry-ci/gantry/logger"
)

// defaultDescriptorPaths are the locations searched when a pipeline command
// gets no file argument and nothing is piped to STDIN. circle.yml is the
// classic name of this format.
func defaultDescriptorPaths() []string {
	return []string{
		"gantry.yml",
		"gantry.yaml",
		"gantry.json",
		filepath.FromSlash(".gantry/pipeline.yml"),
		filepath.FromSlash(".gantry/pipeline.yaml"),
		filepath.FromSlash(".gantry/pipeline.json"),
		"circle.yml",
	}
}

// readDescriptorInput finds and reads the descriptor for a pipeline command:
// the file argument when one was given, STDIN when something is piped to it,
// otherwise exactly one of the default paths. src names where the input came
// from, for use in messages.
func readDescriptorInput(l logger.Logger, filePath string) (src string, input []byte, err error) {
	switch {
	case filePath != "":
		l.Info("Reading descriptor from \"%s\"", filePath)

		input, err = os.ReadFile(filePath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read file: %w", err)
		}
		src = filePath

	case stdin.IsReadable():
		l.Info("Reading descriptor from STDIN")

		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read from STDIN: %w", err)
		}
		src = "(stdin)"

	default:
		l.Info("Searching for descriptor...")

		var found []string
		for _, path := range defaultDescriptorPaths() {
			if _, err := os.Stat(path); err == nil {
				found = append(found, path)
			}
		}

		// Picking between several candidates silently would hide which one
		// actually drives the pipeline, so refuse to.
		if len(found) > 1 {
			return "", nil, fmt.Errorf("found multiple descriptors: %s (pass one of them explicitly)", strings.Join(found, ", "))
		}
		if len(found) == 0 {
			return "", nil, fmt.Errorf("could not find a descriptor in the default locations (%s)", strings.Join(defaultDescriptorPaths(), ", "))
		}

		src = found[0]
		l.Info("Found descriptor \"%s\"", src)

		input, err = os.ReadFile(src)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read file %q: %w", src, err)
		}
	}

	if len(input) == 0 {
		return "", nil, fmt.Errorf("descriptor %s is empty", src)
	}

	return src, input, nil
}
