package summarize

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/kabuto-group/disclosure-cli/internal/model"
)

//go:embed prompts/system_standard.md
var systemStandard string

//go:embed prompts/system_compact.md
var systemCompact string

//go:embed prompts/system_timeseries.md
var systemTimeseries string

// largeCapMarkers are the TOPIX size buckets that get the full analyst
// prompt. Everything else uses the compact one.
var largeCapMarkers = []string{"Core30", "Large70", "Mid400"}

// systemPromptFor picks the system prompt by the issuer's size bucket.
func systemPromptFor(size string) string {
	for _, marker := range largeCapMarkers {
		if strings.Contains(size, marker) {
			return systemStandard
		}
	}
	return systemCompact
}

// summaryUserPrompt assembles the per-issuer prompt from the group's
// combined document text.
func summaryUserPrompt(g *model.DocumentGroup, date string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "対象日: %s\n", date)
	fmt.Fprintf(&sb, "企業: %s（証券コード %s）\n", g.Name, g.Code)
	fmt.Fprintf(&sb, "業種: %s / 規模区分: %s\n", g.Sector, g.Size)
	fmt.Fprintf(&sb, "開示資料数: %d\n\n", len(g.Documents))
	sb.WriteString("以下の開示資料を分析してください。\n\n")
	sb.WriteString(g.CombinedText)
	return sb.String()
}

// sectorInsightUserPrompt aggregates one sector/size bucket's issuer
// summaries for a cross-company view.
func sectorInsightUserPrompt(sector, size, date string, summaries []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "対象日: %s\n", date)
	fmt.Fprintf(&sb, "業種: %s / 規模区分: %s（%d社）\n\n", sector, size, len(summaries))
	sb.WriteString("以下は同一業種・規模区分に属する各社の開示サマリーです。\n")
	sb.WriteString("業種全体の傾向、共通する論点、際立つ個別企業を日本語のMarkdownでまとめてください。\n\n")
	for i, summary := range summaries {
		fmt.Fprintf(&sb, "--- 企業サマリー %d ---\n%s\n\n", i+1, summary)
	}
	return sb.String()
}

// timeseriesUserPrompt lays out one issuer's documents oldest first,
// labeled by period.
func timeseriesUserPrompt(code, name, sector, size string, periods, texts []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "企業: %s（証券コード %s）\n", name, code)
	fmt.Fprintf(&sb, "業種: %s / 規模区分: %s\n", sector, size)
	fmt.Fprintf(&sb, "対象期数: %d\n\n", len(texts))
	for i, text := range texts {
		fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", periods[i], text)
	}
	return sb.String()
}

// timeseriesInsightUserPrompt aggregates per-issuer trend summaries for
// one sector/size bucket.
func timeseriesInsightUserPrompt(sector, size string, summaries []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "業種: %s / 規模区分: %s（%d社）\n\n", sector, size, len(summaries))
	sb.WriteString("以下は同一業種・規模区分の各社の時系列分析です。\n")
	sb.WriteString("業種全体のトレンドと転換点を日本語のMarkdownでまとめてください。\n\n")
	for i, summary := range summaries {
		fmt.Fprintf(&sb, "--- 企業分析 %d ---\n%s\n\n", i+1, summary)
	}
	return sb.String()
}
