package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/forecastviz/app"
)

var persistReq app.PersistRequest

var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Write forecast.csv, model.json and configs.yaml for a run",
	RunE:  runPersist,
}

func init() {
	f := persistCmd.Flags()
	f.StringVar(&persistReq.Run, "run", "", "run name, used as the output sub directory")
	f.StringVarP(&persistReq.Input, "input", "i", "forecast.csv", "forecast table, plain or gzip CSV")
	f.StringVar(&persistReq.Model, "model", "model.json", "serialized model state")
	f.StringVar(&persistReq.Job, "job", "job.yaml", "prediction job definition")
	f.StringVar(&persistReq.Backtest, "backtest", "", "optional backtest configuration (YAML)")
	_ = persistCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(persistCmd)
}

func runPersist(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		run, err := svc.Persist(ctx, persistReq)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d bytes)\n", run.ID, run.Dir, run.Bytes)
		return err
	})
}
