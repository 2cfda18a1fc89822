package clicommand

import "github.com/urfave/cli"

var GantryCommands = []cli.Command{
	{
		Name:  "pipeline",
		Usage: "Validate, render and normalize pipeline descriptors",
		Subcommands: []cli.Command{
			PipelineValidateCommand,
			PipelineRenderCommand,
			PipelineNormalizeCommand,
		},
	},
	{
		Name:  "secret",
		Usage: "Check secret availability for a descriptor's deployment targets",
		Subcommands: []cli.Command{
			SecretCheckCommand,
		},
	},
	{
		Name:  "docs",
		Usage: "Notify a documentation host about a deployment",
		Subcommands: []cli.Command{
			DocsNotifyCommand,
		},
	},
}
