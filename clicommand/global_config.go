package clicommand

import "github.com/urfave/cli"

// GlobalConfig is the set of options every command accepts, loaded from the
// flags in globalFlags. Command config structs embed it.
type GlobalConfig struct {
	Debug       bool     `cli:"debug"`
	LogLevel    string   `cli:"log-level"`
	LogFormat   string   `cli:"log-format"`
	NoColor     bool     `cli:"no-color"`
	Experiments []string `cli:"experiment" normalize:"list"`
	Profile     string   `cli:"profile"`
	Config      string   `cli:"config"`
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		NoColorFlag,
		DebugFlag,
		LogLevelFlag,
		LogFormatFlag,
		ExperimentsFlag,
		ProfileFlag,
		ConfigFlag,
	}
}

// APIConfig is the set of HTTP options for commands that talk to a
// documentation host.
type APIConfig struct {
	DebugHTTP bool `cli:"debug-http"`
	TraceHTTP bool `cli:"trace-http"`
	NoHTTP2   bool `cli:"no-http2"`
}

func apiFlags() []cli.Flag {
	return []cli.Flag{
		NoHTTP2Flag,
		DebugHTTPFlag,
		TraceHTTPFlag,
	}
}

// SecretSourceConfig is the set of secret-source options for commands that
// resolve descriptor templates.
type SecretSourceConfig struct {
	// Vars deliberately skips list normalization: secret values may contain
	// commas.
	Vars        []string `cli:"var"`
	SecretsFile string   `cli:"secrets-file" normalize:"filepath"`
	ProcessEnv  bool     `cli:"env"`
}

func secretSourceFlags() []cli.Flag {
	return []cli.Flag{
		VarFlag,
		SecretsFileFlag,
		ProcessEnvFlag,
	}
}
