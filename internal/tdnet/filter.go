package tdnet

import (
	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/refdata"
)

// MarketFilter excludes documents whose issuer belongs to a configured
// set of market segments. An issuer with no market mapping is never
// excluded, so unknown issuers are not silently dropped.
type MarketFilter struct {
	table    *refdata.Table
	excluded map[string]bool
}

// NewMarketFilter builds a filter over the reference table. When
// excludedMarkets is empty the default exclusion set applies.
func NewMarketFilter(table *refdata.Table, excludedMarkets []string) *MarketFilter {
	excluded := refdata.DefaultExcludedMarkets()
	if len(excludedMarkets) > 0 {
		excluded = make(map[string]bool, len(excludedMarkets))
		for _, m := range excludedMarkets {
			excluded[m] = true
		}
	}
	return &MarketFilter{table: table, excluded: excluded}
}

// Excluded reports whether the issuer's resolved market segment is in
// the exclusion set. Raw-code lookup is tried first, normalized-code
// lookup as fallback.
func (f *MarketFilter) Excluded(rawCode string) bool {
	if f.table == nil {
		return false
	}
	market := f.table.Market(rawCode)
	if market == "" {
		return false
	}
	if f.excluded[market] {
		zap.L().Debug("excluded by market segment",
			zap.String("code", rawCode),
			zap.String("market", market),
		)
		return true
	}
	return false
}
