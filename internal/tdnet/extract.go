package tdnet

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/model"
)

// header literals of the listing table; rows repeating them are skipped.
var headerCells = map[string]bool{
	"時刻":   true,
	"コード":  true,
	"会社名":  true,
	"タイトル": true,
}

// ExtractDocuments parses a listing page's HTML table into classified
// documents. Rows with fewer than 6 cells and header-like rows are
// dropped; relative PDF links are resolved against baseURL; titles that
// match no keyword group are excluded from the result but still count
// as extractable rows. The row count is the pagination stop signal: a
// page with zero extractable rows ends the date.
func ExtractDocuments(html, baseURL string) ([]model.Document, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, eris.Wrap(err, "tdnet: parse listing page")
	}

	rows := 0
	var docs []model.Document
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		timeCell := strings.TrimSpace(cells.Eq(0).Text())
		code := strings.TrimSpace(cells.Eq(1).Text())
		company := strings.TrimSpace(cells.Eq(2).Text())
		titleCell := cells.Eq(3)
		title := strings.TrimSpace(titleCell.Text())

		if timeCell == "" || code == "" || company == "" || title == "" {
			return
		}
		if headerCells[timeCell] || headerCells[code] || headerCells[company] || headerCells[title] {
			return
		}
		rows++

		docType, ok := Classify(title)
		if !ok {
			return
		}

		pdfURL := ""
		if href, found := titleCell.Find("a").First().Attr("href"); found {
			pdfURL = resolveURL(baseURL, href)
		}

		docs = append(docs, model.Document{
			Time:        timeCell,
			Code:        code,
			CompanyName: company,
			Title:       title,
			DocType:     docType,
			PDFURL:      pdfURL,
		})
	})

	return docs, rows, nil
}

// resolveURL turns a relative PDF href into an absolute URL.
func resolveURL(baseURL, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		zap.L().Warn("invalid base url", zap.String("base_url", baseURL), zap.Error(err))
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
