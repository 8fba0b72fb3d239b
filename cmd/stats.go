package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/internal/table"
)

var (
	statsOriginal string
	statsEnriched string
	statsRuns     bool
	statsStatus   string
	statsLimit    int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize an enriched CSV or list run history",
	Long: `Without --runs, compares an enriched CSV against its original and prints
per-attribute completion. With --runs, lists persisted run history.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if statsRuns {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			runs, err := st.ListRuns(ctx, store.RunFilter{
				Status: statsStatus,
				Limit:  statsLimit,
			})
			if err != nil {
				return eris.Wrap(err, "stats: list runs")
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stderr, "No runs found.")
				return nil
			}
			formatRunsList(os.Stdout, runs)
			return nil
		}

		if statsEnriched == "" {
			return eris.New("stats: --enriched is required (or use --runs)")
		}

		enriched, err := table.Load(statsEnriched)
		if err != nil {
			return err
		}
		original := model.Table{}
		if statsOriginal != "" {
			original, err = table.Load(statsOriginal)
			if err != nil {
				return err
			}
		}

		formatSummary(os.Stdout, enrich.Summarize(original, enriched))
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsOriginal, "original", "", "path to the original CSV (enables changed-row counting)")
	statsCmd.Flags().StringVar(&statsEnriched, "enriched", "", "path to the enriched CSV")
	statsCmd.Flags().BoolVar(&statsRuns, "runs", false, "list persisted run history instead")
	statsCmd.Flags().StringVar(&statsStatus, "status", "", "filter run history by status")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 50, "max runs to display")
	rootCmd.AddCommand(statsCmd)
}

// formatRunsList writes a tabular run-history listing to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tROWS\tENRICHED\tCOMPLETION\tCREATED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f%%\t%s\n",
			truncateID(r.ID),
			r.Source,
			r.Status,
			r.RowsTotal,
			r.RowsEnriched,
			r.Completion*100,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
