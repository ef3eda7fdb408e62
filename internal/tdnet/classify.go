// Package tdnet discovers disclosure documents from the exchange's
// paginated listing service: fetching pages, extracting table rows,
// classifying titles, and filtering by market segment.
package tdnet

import (
	"strings"

	"github.com/kabuto-group/disclosure-cli/internal/model"
)

// keywordGroups are evaluated in fixed priority order; the first group
// with a substring match wins. A title matching both results keywords
// and presentation keywords is classified as financial results.
var keywordGroups = []struct {
	docType  model.DocType
	keywords []string
}{
	{model.DocTypeTanshin, []string{"決算短信", "決算短", "短信", "決算", "業績"}},
	{model.DocTypePresentation, []string{"説明資料", "補足資料", "プレゼンテーション", "資料", "説明"}},
	{model.DocTypeDividend, []string{"配当", "配当金", "配当政策"}},
	{model.DocTypeOther, []string{"開示事項", "経過", "変更", "修正", "訂正", "重要"}},
}

// Classify maps a document title to its coarse category. The second
// return is false when the title matches no keyword group and the
// document should be excluded. Matching is substring-based and
// case-insensitive.
func Classify(title string) (model.DocType, bool) {
	lower := strings.ToLower(title)
	for _, group := range keywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return group.docType, true
			}
		}
	}
	return "", false
}
