// Package config loads the sopkit command-line configuration.
//
// Values are resolved from, lowest priority first: built-in defaults, an
// optional YAML config file and SOPKIT_* environment variables. Command-line
// flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidColorMode    = errors.New("invalid color mode")
	ErrInvalidMaxOutput    = errors.New("invalid max output size")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SOPKIT"

// Config holds the CLI configuration.
type Config struct {
	Output OutputConfig `mapstructure:"output"`
	Decode DecodeConfig `mapstructure:"decode"`
	Log    LogConfig    `mapstructure:"log"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  string `mapstructure:"color"`
}

// DecodeConfig controls payload recovery.
type DecodeConfig struct {
	ExtendedStrategies bool   `mapstructure:"extended_strategies"`
	MaxOutputSize      string `mapstructure:"max_output_size"`
}

// MaxOutputBytes parses MaxOutputSize ("256MiB", "1GB", "65536").
func (d DecodeConfig) MaxOutputBytes() (int64, error) {
	n, err := humanize.ParseBytes(d.MaxOutputSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxOutput, d.MaxOutputSize, err)
	}
	if n == 0 || n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxOutput, d.MaxOutputSize)
	}

	return int64(n), nil
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel converts Level to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}

// Load reads the configuration. An empty configPath searches for sopkit.yaml in
// the working directory and in $HOME/.config/sopkit; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sopkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sopkit")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.format", FormatText)
	v.SetDefault("output.color", ColorAuto)

	v.SetDefault("decode.extended_strategies", false)
	v.SetDefault("decode.max_output_size", "256MiB")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Validate checks every enumerated value and the output size limit.
// Callers that change fields after Load should validate again.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, c.Output.Format)
	}

	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColorMode, c.Output.Color)
	}

	if _, err := c.Decode.MaxOutputBytes(); err != nil {
		return err
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}

	return nil
}
