package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/config"
	"github.com/serplens/serplens/internal/fingerprint"
	"github.com/serplens/serplens/internal/openai"
	"github.com/serplens/serplens/internal/queries"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/internal/serp/googlescrape"
	"github.com/serplens/serplens/internal/serp/serpapi"
	"github.com/serplens/serplens/internal/storage"
	"github.com/serplens/serplens/internal/storage/jsonbackend"
	"github.com/serplens/serplens/internal/storage/postgres"
	"github.com/serplens/serplens/internal/storage/sqlite"
)

// newBackend builds the storage backend the config selects.
func newBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "json":
		return jsonbackend.New(cfg.Storage.Path)
	case "sqlite":
		return sqlite.New(cfg.Storage.Path)
	case "postgres":
		return postgres.New(ctx, cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newProvider builds the SERP provider the config selects.
func newProvider(cfg *config.Config, logger *slog.Logger) (serp.Provider, error) {
	switch cfg.Serp.Provider {
	case "serpapi":
		c, err := serpapi.New(serpapi.Config{
			APIKey:            cfg.Serp.APIKey,
			NumResults:        cfg.Serp.NumResults,
			MaxRetries:        cfg.Serp.MaxRetries,
			Timeout:           cfg.Serp.Timeout,
			RequestsPerSecond: cfg.Serp.RequestsPerSecond,
			Logger:            logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "googlescrape":
		p, err := googlescrape.New(googlescrape.Config{
			NumResults:        cfg.Serp.NumResults,
			Timeout:           cfg.Serp.Timeout,
			Fingerprint:       fingerprint.Profile(cfg.Serp.Fingerprint),
			RequestsPerSecond: cfg.Serp.RequestsPerSecond,
			Proxies:           cfg.Serp.Proxies,
			ProxyFile:         cfg.Serp.ProxyFile,
			Logger:            logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown serp provider %q", cfg.Serp.Provider)
	}
}

// newOpenAI builds the shared LLM client, or nil when no key is configured.
func newOpenAI(cfg *config.Config) (*openai.Client, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, nil
	}
	return openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: cfg.OpenAI.Timeout,
	})
}

// newProducer builds the query producer. Generation needs the LLM, so a
// missing OpenAI key is an error here.
func newProducer(client *openai.Client, cfg *config.Config, logger *slog.Logger) (queries.Producer, error) {
	if client == nil {
		return nil, fmt.Errorf("openai.api_key is required to generate queries")
	}
	return queries.NewGenerator(client, queries.GeneratorConfig{
		Region: cfg.Queries.Region,
		Topics: cfg.Queries.Topics,
		Logger: logger,
	}), nil
}

// newAuditor builds the aggregation engine. The insight stage is attached
// only when enabled and an LLM client exists; the audit itself never needs
// the network.
func newAuditor(client *openai.Client, cfg *config.Config, logger *slog.Logger) *audit.Auditor {
	auditCfg := audit.Config{
		TargetBrand:    cfg.Brand.TargetBrand,
		BrandKeywords:  cfg.Brand.Keywords,
		InsightTimeout: cfg.OpenAI.InsightTimeout,
		Logger:         logger,
	}
	if cfg.OpenAI.InsightsEnabled && client != nil {
		auditCfg.Insight = openai.NewInsightClient(client)
	}
	return audit.New(auditCfg)
}
