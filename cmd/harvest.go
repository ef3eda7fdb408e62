package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	harvestDate   string
	harvestStart  string
	harvestEnd    string
	harvestLayout string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Download one or more dates' disclosures into storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		single := harvestDate != ""
		ranged := harvestStart != "" || harvestEnd != ""
		switch {
		case single && ranged:
			return eris.New("--date and --start-date/--end-date are mutually exclusive")
		case !single && !ranged:
			return eris.New("either --date or --start-date and --end-date are required")
		case ranged && (harvestStart == "" || harvestEnd == ""):
			return eris.New("--start-date and --end-date must be given together")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		h := env.newHarvester(harvestLayout)

		var stored int
		if single {
			stored, err = h.HarvestDate(ctx, harvestDate)
		} else {
			stored, err = h.HarvestRange(ctx, harvestStart, harvestEnd)
		}
		if err != nil {
			return err
		}

		zap.L().Info("harvest finished", zap.Int("stored", stored))
		return nil
	},
}

func init() {
	harvestCmd.Flags().StringVar(&harvestDate, "date", "", "single date to harvest (YYYYMMDD)")
	harvestCmd.Flags().StringVar(&harvestStart, "start-date", "", "range start (YYYYMMDD, inclusive)")
	harvestCmd.Flags().StringVar(&harvestEnd, "end-date", "", "range end (YYYYMMDD, inclusive)")
	harvestCmd.Flags().StringVar(&harvestLayout, "layout", "", "storage layout: date, flat, or sectors (default from config)")
	rootCmd.AddCommand(harvestCmd)
}
