// Package config loads the sitemigrate configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1.0"

// Config is the root configuration.
type Config struct {
	Version    string           `yaml:"version"`
	Editor     EditorConfig     `yaml:"editor"`
	Storage    StorageConfig    `yaml:"storage"`
	Upgrade    UpgradeConfig    `yaml:"upgrade"`
	Watch      WatchConfig      `yaml:"watch"`
	Notify     NotifyConfig     `yaml:"notify"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// EditorConfig describes the running editor. Versions are "X.Y.Z" except the
// front end version, which is "X.Y".
type EditorConfig struct {
	RunningVersion      string `yaml:"running_version"`
	MinSupportedVersion string `yaml:"min_supported_version"`
	FrontEndVersion     string `yaml:"front_end_version"`
	RootURL             string `yaml:"root_url"`
}

// StorageConfig locates saved documents and the run history.
type StorageConfig struct {
	DocumentsDir string `yaml:"documents_dir"`
	HistoryDB    string `yaml:"history_db"`
}

// UpgradeConfig tunes batch upgrades.
type UpgradeConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// WatchConfig drives the watch command.
type WatchConfig struct {
	Schedule string `yaml:"schedule"` // cron expression for the periodic sweep
	Debounce string `yaml:"debounce"` // quiet period after a file event
	Workers  int    `yaml:"workers"`
}

// NotifyConfig publishes upgrade events to NATS JetStream.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	NATSURL  string `yaml:"nats_url"`
	Subject  string `yaml:"subject"`
	KVBucket string `yaml:"kv_bucket"`

	MaxRetries        int    `yaml:"max_retries"`
	RetryBackoff      string `yaml:"retry_backoff"` // fixed|linear|exponential
	RetryInitialDelay string `yaml:"retry_initial_delay"`
	RetryMaxDelay     string `yaml:"retry_max_delay"`
}

// MonitoringConfig covers metrics and logging.
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig exposes Prometheus metrics while watching.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads, normalizes, defaults and validates the configuration at
// configPath. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		cfg.Version = CurrentVersion
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Finalize normalizes, defaults and validates cfg in place.
func Finalize(cfg *Config) error {
	normalize(cfg)
	applyDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns a fully populated configuration.
func Example() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Storage: StorageConfig{
			DocumentsDir: "./websites",
			HistoryDB:    "./sitemigrate-history.db",
		},
		Upgrade: UpgradeConfig{Concurrency: 4},
		Watch: WatchConfig{
			Schedule: "*/15 * * * *",
			Debounce: "2s",
			Workers:  2,
		},
		Notify: NotifyConfig{
			Enabled:  false,
			NATSURL:  "${NATS_URL}",
			Subject:  "sitemigrate.upgrades",
			KVBucket: "sitemigrate-documents",

			MaxRetries:        2,
			RetryBackoff:      "exponential",
			RetryInitialDelay: "500ms",
			RetryMaxDelay:     "5s",
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{Enabled: true, Listen: ":9464", Path: "/metrics"},
			Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		},
	}
	applyDefaults(cfg)
	return cfg
}
