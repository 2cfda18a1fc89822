package clicommand

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/gantry-ci/gantry/internal/descriptor"
	"github.com/gantry-ci/gantry/logger"
	"github.com/urfave/cli"
)

const secretCheckHelpDescription = `Usage:

    gantry secret check [file] [options...]

Description:

Checks that every secret the descriptor's deployment targets reference on the
given branch can be resolved from the configured secret sources, without ever
printing a secret value. Each matching target is listed with its required and
optional keys and the source that resolves them; a required key no source has
is reported as missing.

The command exits 3 when any required key is missing, which is the same exit
status pipeline render uses when it refuses to render, so a deploy can fail
fast before any command runs.

Example:

    $ gantry secret check --branch main --env
    deployment/pypi:
      PYPI_TOKEN     (from process environment)
      TWINE_REPO     (optional, unset)

    $ gantry secret check descriptor.yml --branch deploy --secrets-file .secrets`

type SecretCheckConfig struct {
	GlobalConfig
	SecretSourceConfig

	FilePath string `cli:"arg:0" label:"file path"`
	Branch   string `cli:"branch" validate:"required"`
}

var SecretCheckCommand = cli.Command{
	Name:        "check",
	Usage:       "Check secret availability for the deployment targets a branch matches",
	Description: secretCheckHelpDescription,
	Flags: slices.Concat(globalFlags(), secretSourceFlags(), []cli.Flag{
		BranchFlag,
	}),
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		ctx, cfg, l, _, done := setupLoggerAndConfig[SecretCheckConfig](ctx, c)
		defer done()

		return checkSecrets(ctx, cfg, l, c.App.Writer)
	},
}

func checkSecrets(ctx context.Context, cfg SecretCheckConfig, l logger.Logger, w io.Writer) error {
	src, input, err := readDescriptorInput(l, cfg.FilePath)
	if err != nil {
		return err
	}

	p, err := descriptor.Parse(bytes.NewReader(input))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", src, err)
	}

	reqs, err := p.SecretRequirements(cfg.Branch)
	if err != nil {
		return err
	}

	if len(reqs) == 0 {
		l.Notice("No deployment target in %s matches branch %q", src, cfg.Branch)
		return nil
	}

	source, err := secretSource(l, cfg.SecretSourceConfig)
	if err != nil {
		return err
	}

	// Only key names and source names are printed, never values.
	missing := 0
	for _, req := range reqs {
		_, _ = fmt.Fprintf(w, "%s:\n", descriptor.DeployStageName(req.Target))

		for _, key := range req.Required {
			if _, srcName, ok := source.Lookup(key); ok {
				_, _ = fmt.Fprintf(w, "  %s\t(from %s)\n", key, srcName)
			} else {
				_, _ = fmt.Fprintf(w, "  %s\tMISSING\n", key)
				missing++
			}
		}

		for _, key := range req.Optional {
			if _, srcName, ok := source.Lookup(key); ok {
				_, _ = fmt.Fprintf(w, "  %s\t(optional, from %s)\n", key, srcName)
			} else {
				_, _ = fmt.Fprintf(w, "  %s\t(optional, unset)\n", key)
			}
		}
	}

	if missing > 0 {
		return NewExitError(3, fmt.Errorf("%d required secret(s) are not set for branch %q", missing, cfg.Branch))
	}

	l.Notice("All required secrets are available")
	return nil
}
