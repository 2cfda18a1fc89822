package clicommand

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gantry-ci/gantry/internal/descriptor"
	"github.com/gantry-ci/gantry/internal/schema"
	"github.com/gantry-ci/gantry/logger"
	"github.com/urfave/cli"
)

const pipelineValidateHelpDescription = `Usage:

    gantry pipeline validate [file] [options...]

Description:

Checks a pipeline descriptor for problems without running anything, and
prints every issue found to stdout, one per line. Both the document shape
(against the built-in schema) and the content (branch guards, interpolation
syntax, shell quoting) are checked.

The descriptor is read from the file argument if one is given, from STDIN if
something is piped to it, and otherwise from one of the default locations
(gantry.yml, .gantry/pipeline.yml, circle.yml, and friends).

The command exits 2 when any issue has error severity, so it can gate merges
on its own.

Example:

    $ gantry pipeline validate
    $ gantry pipeline validate descriptor.yml
    $ cat descriptor.yml | gantry pipeline validate`

type PipelineValidateConfig struct {
	GlobalConfig

	FilePath string `cli:"arg:0" label:"file path"`
}

var PipelineValidateCommand = cli.Command{
	Name:        "validate",
	Usage:       "Check a pipeline descriptor for problems",
	Description: pipelineValidateHelpDescription,
	Flags:       globalFlags(),
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		ctx, cfg, l, _, done := setupLoggerAndConfig[PipelineValidateConfig](ctx, c)
		defer done()

		return validatePipeline(ctx, cfg, l, c.App.Writer)
	},
}

func validatePipeline(ctx context.Context, cfg PipelineValidateConfig, l logger.Logger, w io.Writer) error {
	src, input, err := readDescriptorInput(l, cfg.FilePath)
	if err != nil {
		return err
	}

	issues, err := schema.Validate(ctx, input)
	if err != nil {
		return NewExitError(2, fmt.Errorf("%s: %w", src, err))
	}

	// Content checks need a parsed descriptor, so they only run once the
	// document shape is sound.
	if !descriptor.Errors(issues) {
		p, err := descriptor.Parse(bytes.NewReader(input))
		if err != nil {
			return NewExitError(2, fmt.Errorf("parsing %s: %w", src, err))
		}
		issues = append(issues, p.Validate(ctx)...)
	}

	for _, issue := range issues {
		_, _ = fmt.Fprintln(w, issue.String())
	}

	if descriptor.Errors(issues) {
		errCount := 0
		for _, issue := range issues {
			if issue.Severity == descriptor.SeverityError {
				errCount++
			}
		}
		return NewExitError(2, fmt.Errorf("%s has %d validation error(s)", src, errCount))
	}

	l.Notice("Descriptor %s is valid", src)
	return nil
}
