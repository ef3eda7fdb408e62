package tdnet

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuto-group/disclosure-cli/internal/resilience"
)

// fakeSource serves canned pages and counts fetches.
type fakeSource struct {
	pages   map[int]string
	fetches int
}

func (s *fakeSource) FetchPage(_ context.Context, page int, _ string) (string, error) {
	s.fetches++
	html, ok := s.pages[page]
	if !ok {
		return "", fmt.Errorf("page %d: %w", page, resilience.ErrAbsent)
	}
	return html, nil
}

func (s *fakeSource) PageURL(page int, date string) string {
	return fmt.Sprintf("https://example.invalid/I_list_%03d_%s.html", page, date)
}

func TestWalkDate_StopsAtFirstEmptyPage(t *testing.T) {
	source := &fakeSource{pages: map[int]string{
		1: listingPage(listingRow("08:00", "7203", "トヨタ自動車", "決算短信", "a.pdf")),
		2: listingPage(listingRow("08:10", "6758", "ソニーグループ", "決算短信", "b.pdf")),
		3: listingPage(), // header only: no extractable rows
	}}
	p := NewPaginator(source, "https://example.invalid", nil)

	var visited []int
	err := p.WalkDate(context.Background(), "20240101", func(pg Page) error {
		visited = append(visited, pg.Index)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, visited)
	assert.Equal(t, 3, source.fetches, "visits pages 1..k and fetches the empty page k+1")
}

func TestWalkDate_AbsentDate(t *testing.T) {
	source := &fakeSource{pages: map[int]string{}}
	p := NewPaginator(source, "https://example.invalid", nil)

	docs, err := p.CollectDate(context.Background(), "20240101")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 1, source.fetches, "an absent date stops after the page-1 probe")
}

func TestWalkDate_AbsenceMidStreamTerminates(t *testing.T) {
	source := &fakeSource{pages: map[int]string{
		1: listingPage(listingRow("08:00", "7203", "トヨタ自動車", "決算短信", "a.pdf")),
	}}
	p := NewPaginator(source, "https://example.invalid", nil)

	docs, err := p.CollectDate(context.Background(), "20240101")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 2, source.fetches)
}

func TestWalkDate_MarketFilterApplied(t *testing.T) {
	source := &fakeSource{pages: map[int]string{
		1: listingPage(
			listingRow("08:00", "7203", "トヨタ自動車", "決算短信", "a.pdf"),
			listingRow("08:05", "1305", "ETFファンド", "決算短信", "b.pdf"),
		),
	}}
	table := tableWithMarkets(map[string]string{"1305": "ETF・ETN"})
	p := NewPaginator(source, "https://example.invalid", NewMarketFilter(table, nil))

	docs, err := p.CollectDate(context.Background(), "20240101")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "7203", docs[0].Code)
}

func TestWalkDate_FullyFilteredPageContinues(t *testing.T) {
	source := &fakeSource{pages: map[int]string{
		1: listingPage(listingRow("08:00", "1305", "ETFファンド", "決算短信", "a.pdf")),
		2: listingPage(listingRow("08:10", "7203", "トヨタ自動車", "決算短信", "b.pdf")),
	}}
	table := tableWithMarkets(map[string]string{"1305": "ETF・ETN"})
	p := NewPaginator(source, "https://example.invalid", NewMarketFilter(table, nil))

	docs, err := p.CollectDate(context.Background(), "20240101")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "7203", docs[0].Code, "a page excluded in full still advances pagination")
}
