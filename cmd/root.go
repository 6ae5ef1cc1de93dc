package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/forecastviz/app"
	"github.com/kilianp07/forecastviz/config"
	"github.com/kilianp07/forecastviz/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "forecastviz",
	Short:        "Quantile band forecast charts and run artifacts",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, runs fn and closes the service. A panic
// in fn is reported to the monitor and returned as an error.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	defer svc.Recover(&err)
	return fn(ctx, svc)
}
