// Package pathing generates deterministic storage keys for documents and
// derived artifacts. The same input always yields the same key, which
// keeps re-runs idempotent and lets the grouping stage find documents by
// prefix.
package pathing

import (
	"fmt"
	"strings"

	"github.com/kabuto-group/disclosure-cli/internal/model"
)

// Layout selects the storage layout for harvested documents.
type Layout string

const (
	// LayoutDate partitions by date and document type:
	// {base}/{yyyy}/{mm}/{dd}/{doc_type}/{code}_{title}.pdf
	LayoutDate Layout = "date"
	// LayoutFlat partitions by date only, omitting the doc_type segment.
	LayoutFlat Layout = "flat"
	// LayoutSectors partitions by sector and size:
	// {base}/sectors/{sector}/{size}/{code}_{company}_{title}.pdf
	LayoutSectors Layout = "sectors"
)

const (
	maxTitleLen   = 50
	maxCompanyLen = 30
)

// illegal strips characters a path segment cannot carry.
var illegal = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "", "/", "", `\`, "", "|", "", "?", "", "*", "",
)

// SanitizeSegment makes a string safe for use inside a storage key:
// illegal characters are stripped, spaces become underscores, the result
// is truncated to maxLen characters and trailing underscores are removed.
// The limit counts runes, not bytes, so Japanese titles keep their full
// budget and distinct titles stay distinct after truncation.
func SanitizeSegment(s string, maxLen int) string {
	s = illegal.Replace(s)
	s = strings.ReplaceAll(s, " ", "_")
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	return strings.TrimRight(s, "_")
}

// DocumentKey maps a harvested document to its storage key under the
// given layout. The sector and size arguments are only used by
// LayoutSectors.
func DocumentKey(base string, doc model.Document, date string, layout Layout, sector, size string) string {
	title := SanitizeSegment(doc.Title, maxTitleLen)

	switch layout {
	case LayoutSectors:
		company := SanitizeSegment(doc.CompanyName, maxCompanyLen)
		return join(base, "sectors", sector, size,
			fmt.Sprintf("%s_%s_%s.pdf", doc.Code, company, title))
	case LayoutFlat:
		y, m, d := splitDate(date)
		return join(base, y, m, d, fmt.Sprintf("%s_%s.pdf", doc.Code, title))
	default:
		y, m, d := splitDate(date)
		return join(base, y, m, d, string(doc.DocType), fmt.Sprintf("%s_%s.pdf", doc.Code, title))
	}
}

// MetadataKey is the per-date JSON sidecar key.
func MetadataKey(base, date string) string {
	y, m, d := splitDate(date)
	return join(base, y, m, d, fmt.Sprintf("metadata_%s.json", date))
}

// DatePrefix is the listing prefix for one date's documents in the date
// and flat layouts.
func DatePrefix(base, date string) string {
	y, m, d := splitDate(date)
	return join(base, y, m, d) + "/"
}

// SectorsPrefix is the listing prefix for the sector-partitioned layout.
func SectorsPrefix(base string) string {
	return join(base, "sectors") + "/"
}

// SummaryKey is the per-issuer summary artifact key.
func SummaryKey(base, date, sector, size, code, name string) string {
	filename := fmt.Sprintf("%s__%s__%s__%s__%s_summary.md",
		date, SanitizeSegment(sector, maxTitleLen), SanitizeSegment(size, maxTitleLen),
		code, SanitizeSegment(name, maxTitleLen))
	return join(base, "insights-summaries", date, filename)
}

// SectorInsightKey is the per-sector/size insight artifact key for a date.
func SectorInsightKey(base, date, sector, size string) string {
	filename := fmt.Sprintf("%s_%s_insights.md",
		SanitizeSegment(sector, maxTitleLen), SanitizeSegment(size, maxTitleLen))
	return join(base, "insights-sectors", date, filename)
}

// TimeseriesSummaryKey is the per-issuer time-series artifact key.
func TimeseriesSummaryKey(base, sector, size, code string) string {
	return join(base, "sectors-analysis", sector, size, fmt.Sprintf("%s_timeseries_summary.md", code))
}

// TimeseriesInsightKey is the per-sector/size time-series insight key.
func TimeseriesInsightKey(base, sector, size string) string {
	return join(base, "sectors-analysis", sector, size, "sector_timeseries_insights.md")
}

func splitDate(date string) (year, month, day string) {
	if len(date) < 8 {
		return date, "", ""
	}
	return date[:4], date[4:6], date[6:8]
}

// join concatenates non-empty segments with slashes, so an empty base
// does not produce a leading slash.
func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
