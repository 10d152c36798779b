package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b00lduck/elementary/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Host: "0.0.0.0",
			Port: 9090,
		},
		Engine: config.EngineConfig{
			SampleRate:  44100,
			BlockSize:   512,
			EventPollHz: 30,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_ZeroConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidPort_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.Port = 70000

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidPort)
}

func TestValidate_NegativePort_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.Port = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidPort)
}

func TestValidate_InvalidEventPollHz_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Engine.EventPollHz = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidEventPollHz)
}

func TestValidate_InvalidSampleRate_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Engine.SampleRate = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidSampleRate)
}

func TestValidate_InvalidBlockSize_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Engine.BlockSize = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidBlockSize)
}

func TestLoadConfig_ExplicitMissingFileReturnsError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Nil(t, cfg)
}
