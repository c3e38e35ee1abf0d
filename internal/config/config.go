package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/growth"
	"wishlist-momentum-lab/internal/retry"
)

//go:embed sample_config.toml
var sampleConfig string

// Storage selects the persistence backend.
type Storage struct {
	Backend       string `toml:"backend"` // memory | sqlite | postgres
	SQLitePath    string `toml:"sqlite_path"`
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickHouseDSN string `toml:"clickhouse_dsn"` // optional; moves snapshots to ClickHouse
}

// Identity tunes duplicate detection.
type Identity struct {
	Threshold       float64  `toml:"threshold"`
	Epsilon         float64  `toml:"epsilon"`
	Scorer          string   `toml:"scorer"` // levenshtein | token | max
	VariantSuffixes []string `toml:"variant_suffixes"`
}

// Growth tunes the window computation.
type Growth struct {
	Windows           []string `toml:"windows"`
	MinMagnitude      int64    `toml:"min_magnitude"`
	MinElapsedSeconds int      `toml:"min_elapsed_seconds"`
	UnreleasedOnly    bool     `toml:"unreleased_only"`
}

// Momentum tunes ranking.
type Momentum struct {
	PercentileCutoff float64 `toml:"percentile_cutoff"`
}

// Pipeline tunes the batch run.
type Pipeline struct {
	Platforms              []string `toml:"platforms"`
	Workers                int      `toml:"workers"`
	PlatformTimeoutSeconds int      `toml:"platform_timeout_seconds"`
	RetryAttempts          int      `toml:"retry_attempts"`
	RetryInitialDelayMs    int      `toml:"retry_initial_delay_ms"`
	RunLabel               string   `toml:"run_label"`
}

// Collector configures the source of one platform.
type Collector struct {
	Kind string `toml:"kind"` // csv | static
	Path string `toml:"path"`
}

// Publish configures fan-out of ranked results. Empty addresses disable a sink.
type Publish struct {
	RedisAddr    string   `toml:"redis_addr"`
	RedisStream  string   `toml:"redis_stream"`
	RedisChannel string   `toml:"redis_channel"`
	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`
}

// Server configures the long-running scheduler and query API.
type Server struct {
	Addr     string `toml:"addr"`
	Schedule string `toml:"schedule"` // cron spec with seconds field
}

// Retention configures snapshot cleanup.
type Retention struct {
	MaxAgeDays int `toml:"max_age_days"` // 0 disables cleanup
}

// Logging configures log output.
type Logging struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"`
}

// Config holds all settings of the pipeline, the server and the CLI tools.
type Config struct {
	Storage    Storage              `toml:"storage"`
	Identity   Identity             `toml:"identity"`
	Growth     Growth               `toml:"growth"`
	Momentum   Momentum             `toml:"momentum"`
	Pipeline   Pipeline             `toml:"pipeline"`
	Collectors map[string]Collector `toml:"collectors"`
	Publish    Publish              `toml:"publish"`
	Server     Server               `toml:"server"`
	Retention  Retention            `toml:"retention"`
	Logging    Logging              `toml:"logging"`
}

// Load parses the file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error when
// path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// WindowKinds returns the configured windows. Call after Validate.
func (c *Config) WindowKinds() []domain.Window {
	out := make([]domain.Window, 0, len(c.Growth.Windows))
	for _, w := range c.Growth.Windows {
		out = append(out, domain.Window(w))
	}
	return out
}

// PlatformList returns the configured platforms. Call after Validate.
func (c *Config) PlatformList() []domain.Platform {
	out := make([]domain.Platform, 0, len(c.Pipeline.Platforms))
	for _, p := range c.Pipeline.Platforms {
		out = append(out, domain.Platform(p))
	}
	return out
}

// PlatformTimeout returns the per-platform ingestion deadline.
func (c *Config) PlatformTimeout() time.Duration {
	return time.Duration(c.Pipeline.PlatformTimeoutSeconds) * time.Second
}

// RetryConfig returns the backoff settings for collector calls.
func (c *Config) RetryConfig() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = c.Pipeline.RetryAttempts
	rc.InitialDelay = time.Duration(c.Pipeline.RetryInitialDelayMs) * time.Millisecond
	return rc
}

// GrowthParams returns the window computation parameters.
func (c *Config) GrowthParams() growth.Params {
	return growth.Params{
		MinMagnitude: c.Growth.MinMagnitude,
		MinElapsed:   time.Duration(c.Growth.MinElapsedSeconds) * time.Second,
	}
}

// RetentionMaxAge returns the snapshot retention age, zero when disabled.
func (c *Config) RetentionMaxAge() time.Duration {
	return time.Duration(c.Retention.MaxAgeDays) * 24 * time.Hour
}
