// Package config loads the engine's ambient configuration: authority
// connection settings, rate-limit and batch sizing, job retention, worker
// pool sizing, and the hot-reloadable alternate-source list.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthorityConfig points at the primary citation-authority service.
type AuthorityConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`
}

// RateLimitConfig sizes the process-wide token bucket toward the authority.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

// BatchConfig holds the batch-size setting (1..50). The verifier does not
// read it: authority batches are always verify.BatchSize (50) citations.
type BatchConfig struct {
	Size int `yaml:"size"`
}

// JobConfig holds the job retention and sync/async threshold settings.
// Neither value is passed on: store.ProgressStore keeps jobs for its own
// fixed 24h, and engine.Router takes its threshold from its SyncThreshold
// field.
type JobConfig struct {
	TTL                time.Duration `yaml:"-"`
	SyncThresholdBytes int           `yaml:"sync_threshold_bytes"`
}

// WorkerConfig sizes the async worker pool.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig holds the logger level and encoding settings. Neither
// command reads it; both build their logger from logging.Options directly.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AlternateSourceConfig is one configured fallback public legal source.
// Watcher can reload the file this list comes from; neither command starts
// a Watcher, so a running verifier keeps the list loaded at startup.
type AlternateSourceConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// Config is the engine's full runtime configuration.
type Config struct {
	Authority        AuthorityConfig         `yaml:"authority"`
	RateLimit        RateLimitConfig         `yaml:"rate_limit"`
	Batch            BatchConfig             `yaml:"batch"`
	Job              JobConfig               `yaml:"job"`
	Worker           WorkerConfig            `yaml:"worker"`
	Logging          LoggingConfig           `yaml:"logging"`
	AlternateSources []AlternateSourceConfig `yaml:"alternate_sources"`
}

func defaults() *Config {
	return &Config{
		RateLimit: RateLimitConfig{PerMinute: 180, Burst: 50},
		Batch:     BatchConfig{Size: 50},
		Job:       JobConfig{TTL: 86400 * time.Second, SyncThresholdBytes: 5000},
		Worker:    WorkerConfig{Concurrency: runtime.NumCPU()},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML config file at path (chiefly the alternate-source
// list) layered under built-in defaults, then applies environment variable
// overrides, then validates the result. An empty path skips the file read
// and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv overlays environment variables onto cfg. Unset variables
// leave the existing value (file-loaded or default) untouched.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("AUTHORITY_BASE_URL"); v != "" {
		cfg.Authority.BaseURL = v
	}
	if v := os.Getenv("AUTHORITY_API_KEY"); v != "" {
		cfg.Authority.APIKey = v
	}

	if err := envInt("RATE_LIMIT_PER_MIN", &cfg.RateLimit.PerMinute); err != nil {
		return err
	}
	if err := envInt("BATCH_SIZE", &cfg.Batch.Size); err != nil {
		return err
	}
	if err := envInt("SYNC_THRESHOLD_BYTES", &cfg.Job.SyncThresholdBytes); err != nil {
		return err
	}
	if err := envInt("WORKER_CONCURRENCY", &cfg.Worker.Concurrency); err != nil {
		return err
	}

	if v := os.Getenv("JOB_TTL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JOB_TTL_SECONDS: %w", err)
		}
		cfg.Job.TTL = time.Duration(seconds) * time.Second
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func envInt(name string, dest *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dest = n
	return nil
}

// validate enforces the invariants the pipeline relies on at startup
// rather than discovering a zero-value config mid-run.
func validate(cfg *Config) error {
	if cfg.Authority.BaseURL == "" {
		return fmt.Errorf("authority base URL is required")
	}
	if cfg.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("rate limit per minute must be greater than 0")
	}
	if cfg.Batch.Size <= 0 || cfg.Batch.Size > 50 {
		return fmt.Errorf("batch size must be between 1 and 50")
	}
	if cfg.Job.SyncThresholdBytes <= 0 {
		return fmt.Errorf("sync threshold bytes must be greater than 0")
	}
	if cfg.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}
	for _, alt := range cfg.AlternateSources {
		if alt.Name == "" || alt.BaseURL == "" {
			return fmt.Errorf("alternate source entries require name and base_url")
		}
	}
	return nil
}
