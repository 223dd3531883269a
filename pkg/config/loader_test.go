package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/config"
)

type dispatchConfig struct {
	ChannelTimeout time.Duration `env:"TEST_CHANNEL_TIMEOUT" envDefault:"10s"`
	BatchSize      int           `env:"TEST_BATCH_SIZE" envDefault:"100"`
	Channels       []string      `env:"TEST_CHANNELS" envSeparator:"," envDefault:"in_app"`
}

type requiredConfig struct {
	Token string `env:"TEST_REQUIRED_TOKEN,required"`
}

type fileConfig struct {
	Scheme string `env:"TEST_FILE_SCHEME"`
	Region string `env:"TEST_FILE_REGION"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.ResetCache()
		var cfg dispatchConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 10*time.Second, cfg.ChannelTimeout)
		assert.Equal(t, 100, cfg.BatchSize)
		assert.Equal(t, []string{"in_app"}, cfg.Channels)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_CHANNEL_TIMEOUT", "3s")
		t.Setenv("TEST_CHANNELS", "in_app,email,push")

		var cfg dispatchConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 3*time.Second, cfg.ChannelTimeout)
		assert.Equal(t, []string{"in_app", "email", "push"}, cfg.Channels)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_BATCH_SIZE", "50")
		var first dispatchConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_BATCH_SIZE", "75")
		var second dispatchConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, 50, second.BatchSize)
	})

	t.Run("missing required", func(t *testing.T) {
		config.ResetCache()
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *dispatchConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	config.ResetCache()
	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })

	t.Setenv("TEST_REQUIRED_TOKEN", "secret")
	config.ResetCache()
	assert.NotPanics(t, func() { config.MustLoad(&cfg) })
	assert.Equal(t, "secret", cfg.Token)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TEST_FILE_SCHEME=campus\nTEST_FILE_REGION=eu-west-1\n"), 0o600))

	t.Setenv("TEST_FILE_REGION", "us-east-1")
	// t.Setenv restores the variable; make sure the file value is cleaned up too.
	t.Cleanup(func() { _ = os.Unsetenv("TEST_FILE_SCHEME") })

	require.NoError(t, config.LoadEnv(path))

	config.ResetCache()
	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "campus", cfg.Scheme)
	assert.Equal(t, "us-east-1", cfg.Region, "process environment wins over the file")

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnvFile)
	assert.NoError(t, config.LoadEnv())
}
