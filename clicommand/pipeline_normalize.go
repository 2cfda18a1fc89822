package clicommand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/gantry-ci/gantry/internal/descriptor"
	"github.com/gantry-ci/gantry/logger"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

const pipelineNormalizeHelpDescription = `Usage:

    gantry pipeline normalize [file] [options...]

Description:

Parses a pipeline descriptor and prints it back out in canonical form: YAML
aliases and merges resolved, single-command shorthand expanded into lists,
and sections in their standard order. Deployment targets keep their document
order, because that is the order they deploy in.

No interpolation is applied, so the output is still a descriptor, not a
render. Useful for checking what gantry actually sees in a document, and for
converting a descriptor between YAML and JSON.

Example:

    $ gantry pipeline normalize
    $ gantry pipeline normalize descriptor.yml --format json`

type PipelineNormalizeConfig struct {
	GlobalConfig

	FilePath string `cli:"arg:0" label:"file path"`
	Format   string `cli:"format"`
}

var PipelineNormalizeCommand = cli.Command{
	Name:        "normalize",
	Usage:       "Print a pipeline descriptor in canonical form",
	Description: pipelineNormalizeHelpDescription,
	Flags: slices.Concat(globalFlags(), []cli.Flag{
		cli.StringFlag{
			Name:   "format",
			Usage:  "The output format, either 'yaml' (default) or 'json'",
			Value:  "yaml",
			EnvVar: "GANTRY_PIPELINE_NORMALIZE_FORMAT",
		},
	}),
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		ctx, cfg, l, _, done := setupLoggerAndConfig[PipelineNormalizeConfig](ctx, c)
		defer done()

		return normalizePipeline(ctx, cfg, l, c.App.Writer)
	},
}

func normalizePipeline(ctx context.Context, cfg PipelineNormalizeConfig, l logger.Logger, w io.Writer) error {
	src, input, err := readDescriptorInput(l, cfg.FilePath)
	if err != nil {
		return err
	}

	p, err := descriptor.Parse(bytes.NewReader(input))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", src, err)
	}

	switch cfg.Format {
	case "yaml":
		out, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to write YAML output: %w", err)
		}
		_, _ = w.Write(out)

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}

	default:
		return fmt.Errorf("invalid format %q: must be either 'yaml' or 'json'", cfg.Format)
	}

	return nil
}
