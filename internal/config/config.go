// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-seedshard.
//
// go-seedshard is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the seedshard YAML configuration file and applies
// SEEDSHARD_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-seedshard/pkg/crypto/rand"
	"github.com/jeremyhahn/go-seedshard/pkg/logging"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"github.com/jeremyhahn/go-seedshard/pkg/seed"
	"github.com/jeremyhahn/go-seedshard/pkg/shard"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SEEDSHARD"

// Output formats
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete seedshard configuration. Secrets
// (passphrases, mnemonics) are never read from it.
type Config struct {
	Entropy  EntropyConfig  `yaml:"entropy"`
	Mnemonic MnemonicConfig `yaml:"mnemonic"`
	Seed     SeedConfig     `yaml:"seed"`
	Shard    ShardConfig    `yaml:"shard"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Output   OutputConfig   `yaml:"output"`
}

// EntropyConfig selects the random source and the generator limits.
type EntropyConfig struct {
	rand.Config `yaml:",inline"`

	MaxRetries        int     `yaml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// MnemonicConfig holds generation defaults.
type MnemonicConfig struct {
	Language  string `yaml:"language"`
	WordCount int    `yaml:"word_count"`
}

// SeedConfig holds derivation defaults.
type SeedConfig struct {
	Iterations int `yaml:"iterations"`
}

// ShardConfig holds sharding defaults.
type ShardConfig struct {
	// Groups is a group configuration such as "3-of-5" or
	// "2:(2-of-3,3-of-5)".
	Groups string `yaml:"groups"`

	// Language is the wordlist combine encodes the recovered mnemonic in.
	Language string `yaml:"language"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls metrics export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Textfile is written after every command in the node exporter
	// textfile format. Empty disables the export.
	Textfile string `yaml:"textfile"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Entropy: EntropyConfig{
			Config:     rand.Config{Mode: rand.ModeAuto},
			MaxRetries: rand.DefaultMaxRetries,
		},
		Mnemonic: MnemonicConfig{
			Language:  string(mnemonic.DefaultLanguage),
			WordCount: mnemonic.DefaultWordCount,
		},
		Seed: SeedConfig{
			Iterations: seed.DefaultIterations,
		},
		Shard: ShardConfig{
			Groups:   shard.DefaultGroupConfig().String(),
			Language: string(mnemonic.DefaultLanguage),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format: OutputText,
		},
	}
}

// Load reads configuration from a YAML file on the OS filesystem.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads configuration from path on fs. Keys missing from the file
// keep their Default values. Environment overrides are applied before
// validation.
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns Default with environment overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func env(name string) string {
	return os.Getenv(EnvPrefix + "_" + name)
}

// applyEnvOverrides applies SEEDSHARD_* overrides to cfg.
func applyEnvOverrides(cfg *Config) error {
	if mode := env("RNG_MODE"); mode != "" {
		cfg.Entropy.Mode = rand.Mode(mode)
	}
	if mode := env("RNG_FALLBACK_MODE"); mode != "" {
		cfg.Entropy.FallbackMode = rand.Mode(mode)
	}
	if lang := env("LANGUAGE"); lang != "" {
		cfg.Mnemonic.Language = lang
		cfg.Shard.Language = lang
	}
	if words := env("WORDS"); words != "" {
		n, err := strconv.Atoi(words)
		if err != nil {
			return fmt.Errorf("%w: %s_WORDS=%q is not a number", ErrInvalidConfig, EnvPrefix, words)
		}
		cfg.Mnemonic.WordCount = n
	}
	if groups := env("GROUPS"); groups != "" {
		cfg.Shard.Groups = groups
	}
	if level := env("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := env("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if path := env("METRICS_FILE"); path != "" {
		cfg.Metrics.Textfile = path
	}
	if format := env("OUTPUT"); format != "" {
		cfg.Output.Format = format
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validModes := map[rand.Mode]bool{}
	for _, m := range rand.Modes {
		validModes[m] = true
	}
	if !validModes[c.Entropy.Mode] {
		return fmt.Errorf("%w: unknown entropy mode: %s", ErrInvalidConfig, c.Entropy.Mode)
	}
	if c.Entropy.FallbackMode != "" && !validModes[c.Entropy.FallbackMode] {
		return fmt.Errorf("%w: unknown entropy fallback mode: %s", ErrInvalidConfig, c.Entropy.FallbackMode)
	}
	if c.Entropy.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: entropy requests_per_second must not be negative", ErrInvalidConfig)
	}

	if _, err := mnemonic.ParseLanguage(c.Mnemonic.Language); err != nil {
		return fmt.Errorf("%w: mnemonic language: %w", ErrInvalidConfig, err)
	}
	if _, err := mnemonic.WordCountToEntropyBytes(c.Mnemonic.WordCount); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Seed.Iterations < 1 {
		return fmt.Errorf("%w: seed iterations must be at least 1, got %d", ErrInvalidConfig, c.Seed.Iterations)
	}

	groups, err := shard.ParseGroupConfig(c.Shard.Groups)
	if err == nil {
		err = groups.Validate()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := mnemonic.ParseLanguage(c.Shard.Language); err != nil {
		return fmt.Errorf("%w: shard language: %w", ErrInvalidConfig, err)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: invalid log level: %s (must be debug, info, warn or error)", ErrInvalidConfig, c.Logging.Level)
	}
	switch logging.Format(strings.ToLower(c.Logging.Format)) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: invalid log format: %s (must be text or json)", ErrInvalidConfig, c.Logging.Format)
	}

	switch strings.ToLower(c.Output.Format) {
	case OutputText, OutputJSON, OutputTable:
	default:
		return fmt.Errorf("%w: invalid output format: %s (must be text, json or table)", ErrInvalidConfig, c.Output.Format)
	}
	return nil
}

// GeneratorConfig converts the entropy section for rand.NewGenerator.
func (c *Config) GeneratorConfig() *rand.GeneratorConfig {
	resolver := c.Entropy.Config
	return &rand.GeneratorConfig{
		Resolver:          &resolver,
		MaxRetries:        c.Entropy.MaxRetries,
		RequestsPerSecond: c.Entropy.RequestsPerSecond,
		Burst:             c.Entropy.Burst,
	}
}

// LoggerConfig converts the logging section for logging.New.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: logging.Format(strings.ToLower(c.Logging.Format)),
	}
}

// Save writes cfg as YAML to path on fs.
func (c *Config) Save(fs afero.Fs, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
