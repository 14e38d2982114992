package cli

import (
	"context"
	"fmt"

	"github.com/serplens/serplens/internal/metrics"
	"github.com/serplens/serplens/internal/pipeline"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var numQueries int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate queries, fetch SERPs and produce a full audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log)

			if numQueries > 0 {
				cfg.Queries.Count = numQueries
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if cfg.Metrics.Enabled {
				srv := metrics.Start(cfg.Metrics.Port)
				defer func() { _ = srv.Stop(context.Background()) }()
				logger.Info("metrics server started", "port", cfg.Metrics.Port)
			}

			backend, err := newBackend(ctx, cfg)
			if err != nil {
				return fmt.Errorf("setting up storage: %w", err)
			}
			defer backend.Close()

			llm, err := newOpenAI(cfg)
			if err != nil {
				return fmt.Errorf("setting up openai client: %w", err)
			}
			producer, err := newProducer(llm, cfg, logger)
			if err != nil {
				return err
			}
			provider, err := newProvider(cfg, logger)
			if err != nil {
				return fmt.Errorf("setting up serp provider: %w", err)
			}
			auditor := newAuditor(llm, cfg, logger)

			p := pipeline.New(producer, provider, auditor, backend, pipeline.Config{
				NumQueries:  cfg.Queries.Count,
				Languages:   cfg.Queries.Languages,
				Concurrency: cfg.Serp.Concurrency,
				Logger:      logger,
			})

			res, err := p.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s complete: %d queries fetched, %d failed, brand present in %d\n",
				res.RunID, len(res.Records), res.Failed, res.Audit.BrandVisibility.QueriesWithBrand)
			return nil
		},
	}

	cmd.Flags().IntVarP(&numQueries, "queries", "n", 0, "number of queries to generate (overrides config)")
	return cmd
}
