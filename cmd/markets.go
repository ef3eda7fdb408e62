package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/refdata"
)

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List the reference table's market segments against the exclusion set",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := refdata.Load(cfg.RefData.CompaniesPath)
		if err != nil {
			return err
		}

		markets := table.UniqueMarkets()
		if len(markets) == 0 {
			zap.L().Warn("reference table has no market segments",
				zap.String("path", cfg.RefData.CompaniesPath),
			)
			return nil
		}

		excluded := refdata.DefaultExcludedMarkets()
		if len(cfg.Scraping.ExcludedMarkets) > 0 {
			excluded = map[string]bool{}
			for _, m := range cfg.Scraping.ExcludedMarkets {
				excluded[m] = true
			}
		}

		formatMarkets(os.Stdout, markets, excluded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(marketsCmd)
}

func formatMarkets(out io.Writer, markets []string, excluded map[string]bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MARKET\tEXCLUDED")
	_, _ = fmt.Fprintln(w, "------\t--------")

	for _, m := range markets {
		flag := ""
		if excluded[m] {
			flag = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", m, flag)
	}
	_ = w.Flush()
}
