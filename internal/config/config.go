package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jcalabro/streamsketch"
)

// Config is the CLI configuration loaded from YAML.
type Config struct {
	Bloom    BloomConfig    `yaml:"bloom"`
	Distinct DistinctConfig `yaml:"distinct"`
	Hash     HashConfig     `yaml:"hash"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BloomConfig sizes the Bloom filter.
type BloomConfig struct {
	Capacity          uint64  `yaml:"capacity"`
	FalsePositiveRate float64 `yaml:"false_positive_rate"`
}

// DistinctConfig shapes the multi-hash distinct counter.
type DistinctConfig struct {
	Hashes int `yaml:"hashes"`
	Groups int `yaml:"groups"`
}

// HashConfig selects the hash function and seed shared by all sketches.
type HashConfig struct {
	// Algorithm is "murmur3" or "xxh3".
	Algorithm string `yaml:"algorithm"`
	// Seed overrides the per-sketch default seed when set.
	Seed *uint32 `yaml:"seed"`
}

// LoggingConfig controls the zap logger and lumberjack rotation.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File enables rotated file logging; empty logs to stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Bloom: BloomConfig{
			Capacity:          1000,
			FalsePositiveRate: 0.01,
		},
		Distinct: DistinctConfig{
			Hashes: 64,
			Groups: 8,
		},
		Hash: HashConfig{
			Algorithm: "murmur3",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out of range setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Bloom.Capacity == 0 {
		errs = append(errs, errors.New("bloom.capacity must be positive"))
	}
	if !(c.Bloom.FalsePositiveRate > 0 && c.Bloom.FalsePositiveRate < 1) {
		errs = append(errs, fmt.Errorf("bloom.false_positive_rate must be in (0, 1), got %v", c.Bloom.FalsePositiveRate))
	}
	if c.Distinct.Hashes <= 0 {
		errs = append(errs, fmt.Errorf("distinct.hashes must be positive, got %d", c.Distinct.Hashes))
	}
	if c.Distinct.Groups <= 0 {
		errs = append(errs, fmt.Errorf("distinct.groups must be positive, got %d", c.Distinct.Groups))
	}
	if _, err := c.Hash.Hasher(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Hasher maps the configured algorithm name to a hasher.
func (h HashConfig) Hasher() (streamsketch.Hasher, error) {
	switch strings.ToLower(h.Algorithm) {
	case "", "murmur3":
		return streamsketch.Murmur3, nil
	case "xxh3":
		return streamsketch.XXH3, nil
	}
	return nil, fmt.Errorf("hash.algorithm %q is not one of murmur3, xxh3", h.Algorithm)
}

// Options returns the sketch options for this hash configuration.
func (h HashConfig) Options() ([]streamsketch.Option, error) {
	hasher, err := h.Hasher()
	if err != nil {
		return nil, err
	}

	opts := []streamsketch.Option{streamsketch.WithHasher(hasher)}
	if h.Seed != nil {
		opts = append(opts, streamsketch.WithSeed(*h.Seed))
	}
	return opts, nil
}
