package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/internal/table"
)

var (
	runCSV     string
	runOutput  string
	runLimit   int
	runDelayMS int
	runOffline bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a CSV and write the result",
	Long: `Reads a CSV, enriches every row, and writes the enriched table.

Examples:
  # Offline full pipeline (no API keys needed)
  enrich-cli run --csv companies.csv --offline --output enriched.csv

  # Real APIs, first 5 rows only
  enrich-cli run --csv companies.csv --limit 5 --output enriched.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		tbl, err := table.Load(runCSV)
		if err != nil {
			return err
		}
		if runLimit > 0 && runLimit < len(tbl.Rows) {
			tbl.Rows = tbl.Rows[:runLimit]
		}
		zap.L().Info("loaded csv",
			zap.String("path", runCSV),
			zap.Int("rows", len(tbl.Rows)),
			zap.Strings("columns", tbl.Columns),
		)

		var env *enrichEnv
		if runOffline {
			env = newOfflineEnv()
		} else {
			if err := validateAPIKeys(); err != nil {
				return err
			}
			env = newEnrichEnv()
		}

		opts := []enrich.Option{
			enrich.WithLogSize(cfg.Pipeline.LogSize),
			enrich.WithProgressFunc(func(pr enrich.Progress) {
				zap.L().Info("progress",
					zap.String("state", string(pr.State)),
					zap.Float64("fraction", pr.Fraction),
				)
			}),
		}
		delay := time.Duration(cfg.Pipeline.RowDelayMillis) * time.Millisecond
		if cmd.Flags().Changed("delay-ms") {
			delay = time.Duration(runDelayMS) * time.Millisecond
		}
		if runOffline && !cmd.Flags().Changed("delay-ms") {
			delay = 0
		}
		opts = append(opts, enrich.WithRowDelay(delay))

		p := enrich.NewPipeline(tbl, env.Enricher, env.Creds, opts...)
		zap.L().Info("entity column resolved", zap.String("column", p.EntityColumn()))

		if err := p.Start(ctx); err != nil {
			return eris.Wrap(err, "run: start pipeline")
		}
		<-p.Done()

		st := p.Status()
		if st.State != enrich.StateCompleted {
			return eris.Errorf("run: pipeline finished in state %s", st.State)
		}

		result, err := p.Result()
		if err != nil {
			return err
		}
		if err := table.Export(runOutput, result); err != nil {
			return err
		}
		zap.L().Info("enriched csv written",
			zap.String("path", runOutput),
			zap.Int("rows", len(result.Rows)),
			zap.Int("enriched", st.Enriched),
		)

		summary := enrich.Summarize(tbl, result)
		formatSummary(os.Stderr, summary)

		if sdb, err := initStore(ctx); err != nil {
			zap.L().Warn("run history unavailable", zap.Error(err))
		} else {
			defer sdb.Close() //nolint:errcheck
			recordRun(ctx, sdb, runCSV, len(tbl.Rows), store.RunCompletion{
				Status:       string(st.State),
				RowsEnriched: st.Enriched,
				Completion:   summary.Completion,
			})
		}

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCSV, "csv", "", "path to input CSV (required)")
	runCmd.Flags().StringVar(&runOutput, "output", "enriched.csv", "path for the enriched CSV")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max rows to process (0 = all)")
	runCmd.Flags().IntVar(&runDelayMS, "delay-ms", 0, "inter-row delay override in milliseconds")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "use stub clients (no API keys needed)")
	_ = runCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(runCmd)
}

// formatSummary writes the per-attribute completion table to w.
func formatSummary(out io.Writer, s enrich.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ATTRIBUTE\tFOUND\tPERCENT")
	for _, a := range s.Attributes {
		_, _ = fmt.Fprintf(w, "%s\t%d/%d\t%.0f%%\n", a.Attribute, a.Count, s.Rows, a.Percent*100)
	}
	_, _ = fmt.Fprintf(w, "overall completion\t\t%.1f%%\n", s.Completion*100)
	_, _ = fmt.Fprintf(w, "changed rows\t%d\t\n", len(s.ChangedRows))
	_ = w.Flush()
}
