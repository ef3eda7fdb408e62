package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/group"
)

var (
	summarizeStart     string
	summarizeEnd       string
	summarizeInclude   string
	summarizeCodes     []string
	summarizeMaxGroups int
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate per-issuer summaries and sector insights for harvested dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if summarizeStart == "" || summarizeEnd == "" {
			return eris.New("--start-date and --end-date are required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.newAnalysisPipeline(ctx, group.Filter{
			Include:   summarizeInclude,
			Codes:     summarizeCodes,
			MaxGroups: summarizeMaxGroups,
		})
		if err != nil {
			return err
		}

		n, err := p.SummarizeRange(ctx, summarizeStart, summarizeEnd)
		if err != nil {
			return err
		}

		zap.L().Info("summarize finished", zap.Int("issuer_summaries", n))
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeStart, "start-date", "", "range start (YYYYMMDD, inclusive)")
	summarizeCmd.Flags().StringVar(&summarizeEnd, "end-date", "", "range end (YYYYMMDD, inclusive)")
	summarizeCmd.Flags().StringVar(&summarizeInclude, "include", "", "only documents whose title or key contains this substring")
	summarizeCmd.Flags().StringSliceVar(&summarizeCodes, "codes", nil, "only these issuer codes")
	summarizeCmd.Flags().IntVar(&summarizeMaxGroups, "max-groups", 0, "cap on issuer groups (0 = unlimited)")
	rootCmd.AddCommand(summarizeCmd)
}
