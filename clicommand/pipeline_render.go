package clicommand

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/buildkite/shellwords"
	"github.com/gantry-ci/gantry/internal/descriptor"
	"github.com/gantry-ci/gantry/logger"
	"github.com/urfave/cli"
)

const pipelineRenderHelpDescription = `Usage:

    gantry pipeline render [file] [options...]

Description:

Renders the ordered command sequence a run of the descriptor would execute on
the given branch: dependency commands first, then test commands, then the
commands of each deployment target whose branch guard matches. Template
variables are resolved from the secret sources given by --var,
--secrets-file and --env, in that precedence order.

If a matching deployment target requires a secret no source can resolve, the
command fails with exit status 3 before printing anything, naming the missing
keys. Deployment targets are never rendered half-resolved.

The default output is one command per line. With --format json the full
render result is printed, and --format argv prints each command pre-split
into arguments, for runners that exec commands directly.

Example:

    $ gantry pipeline render --branch main --env
    $ gantry pipeline render descriptor.yml --branch deploy --var API_KEY=xyz
    $ gantry pipeline render --branch main --format json`

type PipelineRenderConfig struct {
	GlobalConfig
	SecretSourceConfig

	FilePath string `cli:"arg:0" label:"file path"`
	Branch   string `cli:"branch" validate:"required"`
	Format   string `cli:"format"`
}

var PipelineRenderCommand = cli.Command{
	Name:        "render",
	Usage:       "Render the commands a run of the descriptor would execute",
	Description: pipelineRenderHelpDescription,
	Flags: slices.Concat(globalFlags(), secretSourceFlags(), []cli.Flag{
		BranchFlag,
		cli.StringFlag{
			Name:   "format",
			Usage:  "The output format, one of 'text' (default), 'json' or 'argv'",
			Value:  "text",
			EnvVar: "GANTRY_PIPELINE_RENDER_FORMAT",
		},
	}),
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		ctx, cfg, l, _, done := setupLoggerAndConfig[PipelineRenderConfig](ctx, c)
		defer done()

		return renderPipeline(ctx, cfg, l, c.App.Writer)
	},
}

func renderPipeline(ctx context.Context, cfg PipelineRenderConfig, l logger.Logger, w io.Writer) error {
	if cfg.Format != "text" && cfg.Format != "json" && cfg.Format != "argv" {
		return fmt.Errorf("invalid format %q: must be one of 'text', 'json' or 'argv'", cfg.Format)
	}

	_, input, err := readDescriptorInput(l, cfg.FilePath)
	if err != nil {
		return err
	}

	p, err := descriptor.Parse(bytes.NewReader(input))
	if err != nil {
		return err
	}

	source, err := secretSource(l, cfg.SecretSourceConfig)
	if err != nil {
		return err
	}

	result, err := p.Render(descriptor.RenderInput{
		Branch:  cfg.Branch,
		Secrets: source,
	})
	if err != nil {
		if missing := new(descriptor.MissingSecretError); errors.As(err, &missing) {
			return NewExitError(3, err)
		}
		return err
	}

	if !result.Triggered {
		l.Warn("Branch %q does not trigger a run under general.branches", cfg.Branch)
	}

	switch cfg.Format {
	case "text":
		for _, cmd := range result.Commands {
			_, _ = fmt.Fprintln(w, cmd.Text)
		}

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}

	case "argv":
		argv := make([][]string, 0, len(result.Commands))
		for _, cmd := range result.Commands {
			words, err := shellwords.SplitPosix(cmd.Text)
			if err != nil {
				return fmt.Errorf("splitting command %q into arguments: %w", cmd.Text, err)
			}
			argv = append(argv, words)
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(argv); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	}

	return nil
}
