package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := RegisterFlags(flagSet)
	require.NoError(t, flagSet.Parse(args))
	return f
}

func TestFlagsWithoutArgumentsGiveDefaults(t *testing.T) {
	cfg, err := parseFlags(t).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicedenoise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channels: 2\nvad_threshold: 0.3\nmodel: conjoined-burgers-2018-08-28\n"), 0o644))

	cfg, err := parseFlags(t,
		"--config", path,
		"--vad-threshold=0.7",
		"--vad-release=300ms",
		"--log-level=debug",
		"--max-sessions=0",
	).Load()
	require.NoError(t, err)

	assert.EqualValues(t, 2, cfg.Channels, "from the file")
	assert.Equal(t, "conjoined-burgers-2018-08-28", cfg.Model, "from the file")
	assert.Equal(t, float32(0.7), cfg.VADThreshold)
	assert.Equal(t, 300*time.Millisecond, cfg.VADRelease)
	assert.Equal(t, uint(0), cfg.Server.MaxSessions)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logger.LevelDebug, level)
}

func TestFlagsInvalid(t *testing.T) {
	_, err := parseFlags(t, "--channels=0").Load()
	require.Error(t, err)

	_, err = parseFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.Error(t, err)
}
