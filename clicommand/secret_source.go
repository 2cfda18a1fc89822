package clicommand

import (
	"github.com/gantry-ci/gantry/internal/secrets"
	"github.com/gantry-ci/gantry/logger"
)

// secretSource builds the secret-resolution chain for a command from its
// SecretSourceConfig: --var pairs first, then the --secrets-file if one was
// given, then the process environment if --env was passed. The first source
// that has a key wins.
func secretSource(l logger.Logger, cfg SecretSourceConfig) (*secrets.Multi, error) {
	var sources []secrets.Source

	if len(cfg.Vars) > 0 {
		static, err := secrets.StaticFromPairs("command line", cfg.Vars)
		if err != nil {
			return nil, err
		}
		sources = append(sources, static)
	}

	if cfg.SecretsFile != "" {
		file, err := secrets.FromFile(cfg.SecretsFile)
		if err != nil {
			return nil, err
		}
		l.Debug("Loaded secrets from %s", cfg.SecretsFile)
		sources = append(sources, file)
	}

	if cfg.ProcessEnv {
		sources = append(sources, secrets.FromProcess())
	}

	return secrets.NewMulti(sources...), nil
}
