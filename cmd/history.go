package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/khanhnv2901/seca-headers/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent evaluations from the history file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx := getAppContext(cmd)
			store, err := history.NewStore(appCtx.ResultsDir)
			if err != nil {
				return err
			}
			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if records == nil {
					records = []history.Record{}
				}
				return writeIndentedJSON(out, records)
			}

			if len(records) == 0 {
				fmt.Fprintf(out, "No history recorded in %s\n", store.Path())
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tURL\tPROFILE\tSCORE\tGRADE")
			for _, rec := range records {
				score, grade := fmt.Sprintf("%d/%d", rec.Score, rec.MaxScore), formatGradeWithColor(rec.Grade)
				if rec.Error != "" {
					score, grade = "-", colorError("error")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.Timestamp.UTC().Format(time.RFC3339), rec.URL, rec.Profile, score, grade)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of most recent records to show (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}
