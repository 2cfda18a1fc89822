package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

type testConfig struct {
	FilePath    string        `cli:"arg:0" label:"file path"`
	Branch      string        `cli:"branch" validate:"required"`
	Vars        []string      `cli:"var"`
	UseEnv      bool          `cli:"env"`
	Attempts    int           `cli:"attempts"`
	Interval    time.Duration `cli:"interval"`
	Experiments []string      `cli:"experiment" normalize:"list"`
	Config      string        `cli:"config"`
}

func testFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "branch"},
		cli.StringSliceFlag{Name: "var", Value: &cli.StringSlice{}},
		cli.BoolFlag{Name: "env"},
		cli.IntFlag{Name: "attempts", Value: 5},
		cli.DurationFlag{Name: "interval", Value: 2 * time.Second},
		cli.StringSliceFlag{Name: "experiment", Value: &cli.StringSlice{}},
		cli.StringFlag{Name: "config"},
	}
}

// runLoader runs a one-command app with the given args, loading cfg inside
// the command's action the way the real commands do.
func runLoader(t *testing.T, cfg *testConfig, args ...string) (warnings []string, err error) {
	t.Helper()

	app := cli.NewApp()
	app.Name = "loadtest"
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Flags: testFlags(),
			Action: func(c *cli.Context) error {
				loader := Loader{CLI: c, Config: cfg}
				warnings, err = loader.Load()
				return nil
			},
		},
	}

	require.NoError(t, app.Run(append([]string{"loadtest", "run"}, args...)))
	return warnings, err
}

func TestLoaderLoadsFromFlagsAndArgs(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	_, err := runLoader(t, &cfg,
		"--branch", "main",
		"--var", "A=1", "--var", "B=2,3",
		"--env",
		"--attempts", "3",
		"--interval", "250ms",
		"--experiment", "strict-branch-filters,descriptor-v2",
		"descriptor.yml",
	)
	require.NoError(t, err)

	assert.Equal(t, "descriptor.yml", cfg.FilePath)
	assert.Equal(t, "main", cfg.Branch)
	// No normalize tag, so values keep their commas.
	assert.Equal(t, []string{"A=1", "B=2,3"}, cfg.Vars)
	assert.True(t, cfg.UseEnv)
	assert.Equal(t, 3, cfg.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	// normalize:"list" splits on commas.
	assert.Equal(t, []string{"strict-branch-filters", "descriptor-v2"}, cfg.Experiments)
}

func TestLoaderRequiredValidation(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	_, err := runLoader(t, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing branch.")
}

func TestLoaderConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gantry.cfg")
	require.NoError(t, os.WriteFile(path, []byte("branch=trunk\nattempts=7\n"), 0o600))

	var cfg testConfig
	_, err := runLoader(t, &cfg, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "trunk", cfg.Branch)
	assert.Equal(t, 7, cfg.Attempts)
	// Unset anywhere, so the flag default applies.
	assert.Equal(t, 2*time.Second, cfg.Interval)

	// Flags passed on the command line beat the config file.
	var cfg2 testConfig
	_, err = runLoader(t, &cfg2, "--config", path, "--branch", "main")
	require.NoError(t, err)
	assert.Equal(t, "main", cfg2.Branch)
	assert.Equal(t, 7, cfg2.Attempts)
}

func TestLoaderMissingConfigFile(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	_, err := runLoader(t, &cfg, "--config", filepath.Join(t.TempDir(), "nope.cfg"), "--branch", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration file found")
}

func TestLoaderDeprecatedFlagWarns(t *testing.T) {
	t.Parallel()

	type deprecatedConfig struct {
		Branch string `cli:"branch"`
		Master string `cli:"master" deprecated:"use --branch instead"`
	}

	var warnings []string
	var loadErr error
	cfg := new(deprecatedConfig)

	app := cli.NewApp()
	app.Name = "loadtest"
	app.Commands = []cli.Command{
		{
			Name: "run",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "branch"},
				cli.StringFlag{Name: "master"},
				cli.StringFlag{Name: "config"},
			},
			Action: func(c *cli.Context) error {
				loader := Loader{CLI: c, Config: cfg}
				warnings, loadErr = loader.Load()
				return nil
			},
		},
	}

	require.NoError(t, app.Run([]string{"loadtest", "run", "--master", "trunk"}))
	require.NoError(t, loadErr)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Config option `master` is deprecated")
}
