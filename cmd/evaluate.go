package cmd

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/forecastviz/app"
)

var (
	evalInput string
	evalRun   string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a forecast table against its realized values",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalInput, "input", "i", "forecast.csv", "forecast table, plain or gzip CSV")
	evaluateCmd.Flags().StringVar(&evalRun, "run", "", "run name attached to metrics")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		rep, err := svc.Evaluate(ctx, evalInput, evalRun)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "rows\t%d\nobserved\t%d\n", rep.Rows, rep.Observed)
		fmt.Fprintf(w, "mae\t%.4f\nrmse\t%.4f\nbias\t%.4f\n", rep.MAE, rep.RMSE, rep.Bias)
		for _, c := range rep.Coverage {
			fmt.Fprintf(w, "coverage %s\t%.3f (nominal %.2f)\n", c.Label, c.Coverage, c.Nominal)
		}
		pinball := rep.PinballMap()
		levels := make([]int, 0, len(pinball))
		for l := range pinball {
			levels = append(levels, l)
		}
		sort.Ints(levels)
		for _, l := range levels {
			fmt.Fprintf(w, "pinball P%02d\t%.4f\n", l, pinball[l])
		}
		return w.Flush()
	})
}
