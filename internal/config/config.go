// Package config defines the configuration for an audit run. Only plain
// data types and validation live here; loading is handled by loader.go.
package config

import (
	"fmt"
	"time"
)

// BrandConfig identifies the brand under audit.
type BrandConfig struct {
	// TargetBrand is the brand name reported in the audit output.
	TargetBrand string `mapstructure:"target_brand"`
	// Keywords are the case-insensitive match strings for brand detection.
	// When empty they are derived from TargetBrand.
	Keywords []string `mapstructure:"keywords"`
}

// QueriesConfig controls query generation.
type QueriesConfig struct {
	Count     int      `mapstructure:"count"`
	Languages []string `mapstructure:"languages"`
	Region    string   `mapstructure:"region"`
	Topics    []string `mapstructure:"topics"`
}

// SerpConfig controls the SERP provider.
type SerpConfig struct {
	// Provider selects the backend: "serpapi" or "googlescrape".
	Provider          string        `mapstructure:"provider"`
	APIKey            string        `mapstructure:"api_key"`
	NumResults        int           `mapstructure:"num_results"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	// Fingerprint selects the TLS profile for the scraping provider.
	Fingerprint string `mapstructure:"fingerprint"`
	Concurrency int    `mapstructure:"concurrency"`
	// Proxies rotates scraping requests over these HTTP proxy URLs.
	Proxies []string `mapstructure:"proxies"`
	// ProxyFile loads additional proxies from a file, one URL per line.
	ProxyFile string `mapstructure:"proxy_file"`
}

// OpenAIConfig controls the LLM used for query generation and insights.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// InsightsEnabled toggles the AI insight stage of the audit.
	InsightsEnabled bool          `mapstructure:"insights_enabled"`
	InsightTimeout  time.Duration `mapstructure:"insight_timeout"`
}

// StorageConfig selects where runs are persisted.
type StorageConfig struct {
	// Backend is one of "json", "sqlite" or "postgres".
	Backend string `mapstructure:"backend"`
	// Path is the data directory (json) or database file (sqlite).
	Path string `mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "text"
}

// Config is the root configuration.
type Config struct {
	Brand   BrandConfig   `mapstructure:"brand"`
	Queries QueriesConfig `mapstructure:"queries"`
	Serp    SerpConfig    `mapstructure:"serp"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if c.Brand.TargetBrand == "" {
		return fmt.Errorf("brand.target_brand is required")
	}
	if c.Queries.Count <= 0 {
		return fmt.Errorf("queries.count must be positive, got %d", c.Queries.Count)
	}

	switch c.Serp.Provider {
	case "serpapi":
		if c.Serp.APIKey == "" {
			return fmt.Errorf("serp.api_key is required for the serpapi provider")
		}
	case "googlescrape":
	default:
		return fmt.Errorf("serp.provider must be \"serpapi\" or \"googlescrape\", got %q", c.Serp.Provider)
	}

	switch c.Storage.Backend {
	case "json", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be \"json\", \"sqlite\" or \"postgres\", got %q", c.Storage.Backend)
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be in [1, 65535], got %d", c.Metrics.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}

	return nil
}
