package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/group"
)

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Analyze multi-period trends for issuers stored under the sector layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.newAnalysisPipeline(ctx, group.Filter{})
		if err != nil {
			return err
		}

		n, err := p.Timeseries(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("timeseries finished", zap.Int("issuer_analyses", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timeseriesCmd)
}
