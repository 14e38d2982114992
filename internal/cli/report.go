package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/serplens/serplens/internal/report"
	"github.com/serplens/serplens/internal/storage"
	"github.com/spf13/cobra"
)

func newReportCommand(opts *rootOptions) *cobra.Command {
	var (
		runID   string
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the audit of a stored run as json, text or html",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			backend, err := newBackend(ctx, cfg)
			if err != nil {
				return fmt.Errorf("setting up storage: %w", err)
			}
			defer backend.Close()

			if runID == "" {
				runID, err = latestRunID(ctx, backend)
				if err != nil {
					return err
				}
			}

			res, err := backend.LoadAudit(ctx, runID)
			if err != nil {
				return fmt.Errorf("loading audit for run %s: %w", runID, err)
			}

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "json":
				return report.WriteJSON(out, res)
			case "text":
				return report.WriteText(out, res)
			case "html":
				return report.WriteHTML(out, res)
			case "csv":
				return report.WriteCSV(out, res)
			default:
				return fmt.Errorf("unknown report format %q (want json, text, html or csv)", format)
			}
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run ID to report on (default: most recent run)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (json, text, html, csv)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the report to a file instead of stdout")
	return cmd
}

func latestRunID(ctx context.Context, backend storage.Backend) (string, error) {
	runs, err := backend.ListRuns(ctx)
	if err != nil {
		return "", fmt.Errorf("listing runs: %w", err)
	}
	for _, r := range runs {
		if r.HasAudit {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("no audited runs found")
}
