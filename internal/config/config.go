// Package config loads and validates migration service configuration via
// Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Crawler     CrawlerConfig     `mapstructure:"crawler"`
	Destination DestinationConfig `mapstructure:"destination"`
	Storage     StorageConfig     `mapstructure:"storage"`
	DB          DBConfig          `mapstructure:"db"`
	PubSub      PubSubConfig      `mapstructure:"pubsub"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs crawl and fetch behavior.
type CrawlerConfig struct {
	MaxPages       int    `mapstructure:"max_pages"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffMs      int    `mapstructure:"backoff_ms"`
}

// DestinationConfig points at the destination storefront.
type DestinationConfig struct {
	// BaseURL is the destination site root used for existence checks.
	// Empty disables verification.
	BaseURL string `mapstructure:"base_url"`
	// ExportPath is the destination product export CSV used to build the
	// SKU and barcode index.
	ExportPath string `mapstructure:"export_path"`
}

// StorageConfig selects and configures the artifact blob store.
type StorageConfig struct {
	// Backend is one of "local", "memory", or "gcs".
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to the run store. An empty DSN selects the
// in-memory store.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// PubSubConfig holds metadata for run-completed notifications. An empty
// project ID disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHOPMIGRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.max_pages", 500)
	v.SetDefault("crawler.user_agent", "shopmigrate-bot/0.1")
	v.SetDefault("crawler.timeout_seconds", 20)
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.backoff_ms", 1000)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.base_dir", "exports")
	v.SetDefault("storage.prefix", "runs")
	v.SetDefault("pubsub.topic_name", "migration-runs")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.MaxRetries <= 0 {
		return fmt.Errorf("crawler.max_retries must be > 0")
	}
	switch c.Storage.Backend {
	case "local", "memory":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend must be local, memory, or gcs")
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// FetchBackoff converts the configured backoff base into a duration.
func (c Config) FetchBackoff() time.Duration {
	return time.Duration(c.Crawler.BackoffMs) * time.Millisecond
}
