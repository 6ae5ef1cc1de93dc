package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/forecastviz/app"
	"github.com/kilianp07/forecastviz/core/catalog"
)

var runsQuery catalog.Query

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsQuery.Name, "name", "", "filter by run name")
	runsCmd.Flags().IntVar(&runsQuery.JobID, "job", 0, "filter by prediction job id")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		recs, err := svc.Runs(ctx, runsQuery)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tJOB\tMODEL\tROWS\tCREATED\tDIR")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
				r.ID, r.Name, r.JobID, r.Model, r.Rows, r.CreatedAt.UTC().Format(time.RFC3339), r.Dir)
		}
		return w.Flush()
	})
}
