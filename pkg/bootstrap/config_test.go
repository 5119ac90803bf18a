package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/borgmon/dose-alarm/pkg/store"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, opts Options) (*Config, error) {
	t.Helper()
	dir := t.TempDir()
	if opts.ConfigDir == "" {
		opts.ConfigDir = dir
	}
	if opts.EnvFile == "" {
		opts.EnvFile = filepath.Join(dir, "missing.env")
	}
	return Load(opts)
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.User)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, store.BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "dose-alarm.db", filepath.Base(cfg.StoragePath))
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.PollWindow)
	assert.Equal(t, AppID, cfg.AppID)
	assert.Empty(t, cfg.ConfigFile)
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
user: alice
poll:
  interval: 30s
storage:
  backend: preferences
`), 0o644))
	t.Setenv("DOSE_ALARM_POLL_WINDOW", "90s")

	cfg, err := load(t, Options{ConfigDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.PollWindow)
	assert.Equal(t, store.BackendPreferences, cfg.StorageBackend)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DOSE_ALARM_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("DOSE_ALARM_LOG_LEVEL") })

	cfg, err := load(t, Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("DOSE_ALARM_USER", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("user", "", "")
	require.NoError(t, flags.Parse([]string{"--user", "bob"}))

	cfg, err := load(t, Options{Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.User)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	_, err := load(t, Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("DOSE_ALARM_STORAGE_BACKEND", "mongo")
	t.Setenv("DOSE_ALARM_POLL_INTERVAL", "0s")

	_, err := load(t, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage.backend")
	assert.Contains(t, err.Error(), "poll.interval must be positive")
}
