package config

import "time"

const (
	DefaultQueryCount  = 100
	DefaultQueryRegion = "Turin and Piedmont"

	DefaultSerpProvider   = "serpapi"
	DefaultNumResults     = 10
	DefaultMaxRetries     = 3
	DefaultSerpRPS        = 1.0
	DefaultSerpTimeout    = 30 * time.Second
	DefaultFingerprint    = "chrome"
	DefaultConcurrency    = 1
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultOpenAITimeout  = 60 * time.Second
	DefaultInsightTimeout = 60 * time.Second

	DefaultStorageBackend = "json"
	DefaultStoragePath    = "data"

	DefaultMetricsPort = 9090

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ApplyDefaults fills zero-value fields in cfg with well-known defaults. It
// must run after unmarshalling and before Validate so optional-but-defaulted
// fields are never seen as missing. Explicitly set values always win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Queries.Count == 0 {
		cfg.Queries.Count = DefaultQueryCount
	}
	if len(cfg.Queries.Languages) == 0 {
		cfg.Queries.Languages = []string{"it", "fr", "en"}
	}
	if cfg.Queries.Region == "" {
		cfg.Queries.Region = DefaultQueryRegion
	}

	if cfg.Serp.Provider == "" {
		cfg.Serp.Provider = DefaultSerpProvider
	}
	if cfg.Serp.NumResults == 0 {
		cfg.Serp.NumResults = DefaultNumResults
	}
	if cfg.Serp.MaxRetries == 0 {
		cfg.Serp.MaxRetries = DefaultMaxRetries
	}
	if cfg.Serp.RequestsPerSecond == 0 {
		cfg.Serp.RequestsPerSecond = DefaultSerpRPS
	}
	if cfg.Serp.Timeout == 0 {
		cfg.Serp.Timeout = DefaultSerpTimeout
	}
	if cfg.Serp.Fingerprint == "" {
		cfg.Serp.Fingerprint = DefaultFingerprint
	}
	if cfg.Serp.Concurrency == 0 {
		cfg.Serp.Concurrency = DefaultConcurrency
	}

	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = DefaultOpenAIModel
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = DefaultOpenAITimeout
	}
	if cfg.OpenAI.InsightTimeout == 0 {
		cfg.OpenAI.InsightTimeout = DefaultInsightTimeout
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Backend != "postgres" && cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
