package tdnet

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/resilience"
)

// PageSource is the fetch capability the paginator drives. Satisfied by
// *Fetcher; tests substitute their own.
type PageSource interface {
	FetchPage(ctx context.Context, page int, date string) (string, error)
	PageURL(page int, date string) string
}

// Paginator walks a date's listing pages in order. Page discovery is
// inherently sequential: a page's existence is only known by fetching it.
type Paginator struct {
	source  PageSource
	baseURL string
	filter  *MarketFilter
}

// NewPaginator creates a Paginator. filter may be nil to disable market
// filtering.
func NewPaginator(source PageSource, baseURL string, filter *MarketFilter) *Paginator {
	return &Paginator{source: source, baseURL: baseURL, filter: filter}
}

// Page holds one listing page's classified, filtered documents.
type Page struct {
	Index     int
	Documents []model.Document
}

// WalkDate fetches pages 1, 2, 3, ... for the date and invokes visit for
// each page that yields documents after classification and market
// filtering. The first fetch doubles as the existence probe: an absent
// page 1 means the date has no listing and yields zero pages. Iteration
// stops at the first page with no extractable rows.
func (p *Paginator) WalkDate(ctx context.Context, date string, visit func(Page) error) error {
	for page := 1; ; page++ {
		html, err := p.source.FetchPage(ctx, page, date)
		if err != nil {
			if errors.Is(err, resilience.ErrAbsent) {
				if page == 1 {
					zap.L().Warn("no listing for date", zap.String("date", date))
				} else {
					zap.L().Info("pagination complete",
						zap.String("date", date),
						zap.Int("pages", page-1),
					)
				}
				return nil
			}
			return err
		}

		docs, rows, err := ExtractDocuments(html, p.baseURL)
		if err != nil {
			return err
		}
		if rows == 0 {
			zap.L().Info("pagination complete",
				zap.String("date", date),
				zap.Int("pages", page-1),
			)
			return nil
		}

		if p.filter != nil {
			kept := docs[:0]
			for _, d := range docs {
				if p.filter.Excluded(d.Code) {
					continue
				}
				kept = append(kept, d)
			}
			if excluded := len(docs) - len(kept); excluded > 0 {
				zap.L().Info("market filter applied",
					zap.Int("page", page),
					zap.Int("excluded", excluded),
				)
			}
			docs = kept
		}

		if len(docs) == 0 {
			continue
		}
		if err := visit(Page{Index: page, Documents: docs}); err != nil {
			return err
		}
	}
}

// CollectDate gathers every page's documents for a date into one slice.
func (p *Paginator) CollectDate(ctx context.Context, date string) ([]model.Document, error) {
	var all []model.Document
	err := p.WalkDate(ctx, date, func(pg Page) error {
		all = append(all, pg.Documents...)
		return nil
	})
	return all, err
}
