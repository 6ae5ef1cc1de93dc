package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/forecastviz/app"
)

var plotReq app.PlotRequest

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render a forecast table as a quantile band chart",
	RunE:  runPlot,
}

func init() {
	f := plotCmd.Flags()
	f.StringVarP(&plotReq.Input, "input", "i", "forecast.csv", "forecast table, plain or gzip CSV")
	f.Float64Var(&plotReq.Horizon, "horizon", 24, "forecasting horizon in hours")
	f.StringVarP(&plotReq.Out, "out", "o", "forecast.png", "output image (.png or .svg)")
	f.StringVar(&plotReq.Run, "run", "", "run name attached to metrics")
	f.StringVar(&plotReq.Data, "data", "", "also write the plotted rows as JSON to this path")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		fig, err := svc.Plot(ctx, plotReq)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bands, %d traces\n", plotReq.Out, fig.Fills(), len(fig.Traces))
		return err
	})
}
