package clicommand

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/buildkite/roko"
	"github.com/gantry-ci/gantry/api"
	"github.com/gantry-ci/gantry/logger"
	"github.com/urfave/cli"
)

const docsNotifyHelpDescription = `Usage:

    gantry docs notify [options...]

Description:

Notifies a documentation host that it should rebuild, by POSTing to its
rebuild trigger URL. The request is retried a few times before giving up,
since trigger endpoints are often briefly unavailable mid-deploy.

This is typically the last command of a deployment target that publishes
documentation.

Example:

    $ gantry docs notify --url https://docs.example.com/hooks/rebuild

    # Hosts that authenticate the trigger take a token
    $ GANTRY_DOCS_TOKEN=xxx gantry docs notify --url https://docs.example.com/hooks/rebuild`

type DocsNotifyConfig struct {
	GlobalConfig
	APIConfig

	URL      string        `cli:"url" validate:"required"`
	Token    string        `cli:"token"`
	Attempts int           `cli:"attempts"`
	Interval time.Duration `cli:"interval"`
}

var DocsNotifyCommand = cli.Command{
	Name:        "notify",
	Usage:       "Notify a documentation host that it should rebuild",
	Description: docsNotifyHelpDescription,
	Flags: slices.Concat(globalFlags(), apiFlags(), []cli.Flag{
		cli.StringFlag{
			Name:   "url",
			Usage:  "The rebuild trigger URL of the documentation host",
			EnvVar: "GANTRY_DOCS_URL",
		},
		cli.StringFlag{
			Name:   "token",
			Usage:  "The trigger token, sent as an Authorization header. Hosts without trigger auth don't need one",
			EnvVar: "GANTRY_DOCS_TOKEN",
		},
		cli.IntFlag{
			Name:   "attempts",
			Value:  5,
			Usage:  "How many times to attempt the notification before giving up",
			EnvVar: "GANTRY_DOCS_NOTIFY_ATTEMPTS",
		},
		cli.DurationFlag{
			Name:   "interval",
			Value:  2 * time.Second,
			Usage:  "How long to wait between attempts",
			EnvVar: "GANTRY_DOCS_NOTIFY_INTERVAL",
		},
	}),
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		ctx, cfg, l, _, done := setupLoggerAndConfig[DocsNotifyConfig](ctx, c)
		defer done()

		return notifyDocs(ctx, cfg, l)
	},
}

func notifyDocs(ctx context.Context, cfg DocsNotifyConfig, l logger.Logger) error {
	client := api.NewClient(l, api.Config{
		Endpoint:     cfg.URL,
		Token:        cfg.Token,
		DisableHTTP2: cfg.NoHTTP2,
		DebugHTTP:    cfg.DebugHTTP,
		TraceHTTP:    cfg.TraceHTTP,
	})

	if err := roko.NewRetrier(
		roko.WithMaxAttempts(cfg.Attempts),
		roko.WithStrategy(roko.Constant(cfg.Interval)),
		roko.WithJitter(),
	).DoWithContext(ctx, func(r *roko.Retrier) error {
		// Attempt to trigger the rebuild
		build, resp, err := client.NotifyDocsBuild(ctx)
		if err != nil {
			// Don't bother retrying if the host rejected the request outright,
			// or the connection failed in a way that won't fix itself
			if resp != nil && !api.IsRetryableStatus(resp) {
				r.Break()
				return err
			}
			if resp == nil && !api.IsRetryableError(err) {
				r.Break()
				return err
			}

			l.Warn("%s (%s)", err, r)
			return err
		}

		if build.ID != "" {
			l.Notice("Documentation rebuild triggered (build %s)", build.ID)
		} else {
			l.Notice("Documentation rebuild triggered")
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to notify documentation host: %w", err)
	}

	return nil
}
