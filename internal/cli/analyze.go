package cli

import (
	"context"
	"fmt"

	"github.com/serplens/serplens/internal/pipeline"
	"github.com/spf13/cobra"
)

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Re-run the aggregation over the records of a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
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
			auditor := newAuditor(llm, cfg, logger)

			// analysis never fetches, so producer and provider stay nil
			p := pipeline.New(nil, nil, auditor, backend, pipeline.Config{Logger: logger})

			res, err := p.Analyze(ctx, runID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Audit of run %s updated: %d queries, brand present in %d\n",
				res.RunID, res.Audit.Metadata.TotalQueries, res.Audit.BrandVisibility.QueriesWithBrand)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run ID to analyze (default: most recent run)")
	return cmd
}
