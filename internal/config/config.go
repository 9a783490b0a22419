// Package config loads and holds the application configuration. The
// pipeline receives an explicit *Config rather than reading globals, so
// tests can run with varied thresholds and size filters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	// MinSizeBytes excludes files smaller than this from the check.
	MinSizeBytes int64 `mapstructure:"min_size_bytes"`

	// Threshold is the default Hamming distance threshold, in [0, 64].
	Threshold int `mapstructure:"threshold"`

	// Workers bounds parallel hashing; 0 means one per CPU core.
	Workers int `mapstructure:"workers"`

	// Extensions lists the image extensions considered for checking.
	Extensions []string `mapstructure:"extensions"`

	// DBPath is the SQLite database holding the last run's results.
	DBPath string `mapstructure:"db_path"`

	// LogPath is the application log file.
	LogPath string `mapstructure:"log_path"`

	// PerfLogPath is the human-readable per-run performance log.
	PerfLogPath string `mapstructure:"perf_log_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	extSet         map[string]struct{}
	formatPriority map[string]int
}

// Load reads configuration from ~/.config/photodedup/config.yaml and
// PHOTODEDUP_* environment variables, applying defaults for anything
// unset. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "photodedup"))
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(home, ".config", "photodedup"))

	v.SetEnvPrefix("PHOTODEDUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir := filepath.Join(home, ".photodedup")
	v.SetDefault("min_size_bytes", DefaultMinSizeBytes)
	v.SetDefault("threshold", DefaultThreshold)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("extensions", DefaultExtensions)
	v.SetDefault("db_path", filepath.Join(dataDir, "photodedup.db"))
	v.SetDefault("log_path", filepath.Join(dataDir, "logs", "photodedup.log"))
	v.SetDefault("perf_log_path", filepath.Join(dataDir, "logs", "performance_log.txt"))
	v.SetDefault("log_level", "info")

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
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config populated with built-in defaults only, with
// paths rooted at dataDir. Used by tests and as a fallback.
func Default(dataDir string) *Config {
	cfg := &Config{
		MinSizeBytes: DefaultMinSizeBytes,
		Threshold:    DefaultThreshold,
		Workers:      DefaultWorkers,
		Extensions:   append([]string(nil), DefaultExtensions...),
		DBPath:       filepath.Join(dataDir, "photodedup.db"),
		LogPath:      filepath.Join(dataDir, "logs", "photodedup.log"),
		PerfLogPath:  filepath.Join(dataDir, "logs", "performance_log.txt"),
		LogLevel:     "info",
	}
	cfg.Validate()
	return cfg
}

// Validate checks ranges and normalizes extension casing.
func (c *Config) Validate() error {
	if c.MinSizeBytes < 0 {
		return fmt.Errorf("min_size_bytes must be >= 0, got %d", c.MinSizeBytes)
	}
	if c.Threshold < 0 || c.Threshold > MaxThreshold {
		return fmt.Errorf("threshold must be in [0, %d], got %d", MaxThreshold, c.Threshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	c.extSet = make(map[string]struct{}, len(c.Extensions))
	for i, ext := range c.Extensions {
		c.Extensions[i] = strings.ToLower(ext)
		c.extSet[c.Extensions[i]] = struct{}{}
	}
	if c.formatPriority == nil {
		c.formatPriority = DefaultFormatPriority
	}
	return nil
}

// IsAllowedExtension reports whether ext (including the leading dot,
// any case) is a candidate image extension. Validate must have run.
func (c *Config) IsAllowedExtension(ext string) bool {
	_, ok := c.extSet[strings.ToLower(ext)]
	return ok
}

// FormatPriority returns the quality ranking for a file extension.
// Lower is better; unrecognized extensions rank last.
func (c *Config) FormatPriority(ext string) int {
	if p, ok := c.formatPriority[strings.ToLower(ext)]; ok {
		return p
	}
	return UnknownFormatPriority
}
