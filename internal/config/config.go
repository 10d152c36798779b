// Package config provides configuration loading and validation for the
// elementary control-thread server.
package config

import (
	"errors"
	"time"
)

// Default configuration values.
const (
	DefaultPort        = 9090
	DefaultHost        = "0.0.0.0"
	DefaultSampleRate  = 44100
	DefaultBlockSize   = 512
	DefaultEventPollHz = 30.0
	maxPort            = 65535
)

// Sentinel validation errors.
var (
	// ErrInvalidPort indicates the server port is outside the valid range.
	ErrInvalidPort = errors.New("server.port must be between 1 and 65535")
	// ErrInvalidEventPollHz indicates the engine event poll rate is not positive.
	ErrInvalidEventPollHz = errors.New("engine.event_poll_hz must be positive")
	// ErrInvalidSampleRate indicates the engine sample rate is not positive.
	ErrInvalidSampleRate = errors.New("engine.sample_rate must be positive")
	// ErrInvalidBlockSize indicates the engine block size is not positive.
	ErrInvalidBlockSize = errors.New("engine.block_size must be positive")
)

// Config is the top-level configuration struct for elementary.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the WebSocket transport's listener configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
}

// EngineConfig holds signal-graph engine configuration.
type EngineConfig struct {
	SampleRate         int     `mapstructure:"sample_rate"`
	BlockSize          int     `mapstructure:"block_size"`
	EventPollHz        float64 `mapstructure:"event_poll_hz"`
	VerifyInstructions bool    `mapstructure:"verify_instructions"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Validate checks Config invariants and returns the first error found. A
// zero-value Config (as produced before defaults are applied) is
// considered valid, mirroring how the rest of this codebase's configs
// treat "not yet loaded" as distinct from "loaded and wrong".
func (c *Config) Validate() error {
	if c.Server.Port != 0 && (c.Server.Port < 0 || c.Server.Port > maxPort) {
		return ErrInvalidPort
	}

	if c.Engine.EventPollHz < 0 {
		return ErrInvalidEventPollHz
	}

	if c.Engine.SampleRate < 0 {
		return ErrInvalidSampleRate
	}

	if c.Engine.BlockSize < 0 {
		return ErrInvalidBlockSize
	}

	return nil
}
