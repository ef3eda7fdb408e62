package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/pathing"
	"github.com/kabuto-group/disclosure-cli/internal/ratelimit"
	"github.com/kabuto-group/disclosure-cli/internal/refdata"
	"github.com/kabuto-group/disclosure-cli/internal/storage"
	"github.com/kabuto-group/disclosure-cli/internal/tdnet"
)

func listingRow(timeStr, code, company, title, href string) string {
	titleCell := title
	if href != "" {
		titleCell = fmt.Sprintf(`<a href=%q>%s</a>`, href, title)
	}
	return fmt.Sprintf(
		"<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>XBRL</td><td>東証</td></tr>",
		timeStr, code, company, titleCell,
	)
}

func listingPage(rows ...string) string {
	return "<html><body><table>" + strings.Join(rows, "") + "</table></body></html>"
}

// tdnetServer mimics the disclosure host: two listing pages for
// 20240615, a missing third page, and the linked PDFs.
func tdnetServer(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/I_list_001_20240615.html": listingPage(
			listingRow("09:00", "7203", "トヨタ自動車", "2024年3月期 決算短信〔日本基準〕", "/pdf/1.pdf"),
			listingRow("09:10", "9432", "日本電信電話", "決算説明資料", "/pdf/2.pdf"),
			listingRow("09:20", "5108", "ブリヂストン", "株主総会招集ご通知", "/pdf/3.pdf"),
		),
		"/I_list_002_20240615.html": listingPage(
			listingRow("10:00", "13050", "上場ETFファンド", "分配金（配当）のお知らせ", "/pdf/4.pdf"),
			listingRow("10:10", "6501", "日立製作所", "業績予想の修正に関するお知らせ", "/pdf/5.pdf"),
		),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if html, ok := pages[r.URL.Path]; ok {
			_, _ = w.Write([]byte(html))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/pdf/") {
			_, _ = w.Write([]byte("%PDF-1.4 " + r.URL.Path))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testTable() *refdata.Table {
	return &refdata.Table{
		Issuers: map[string]model.IssuerInfo{
			"7203": {Code: "7203", Name: "トヨタ自動車", Sector: "輸送用機器", Size: "Core30"},
			"1305": {Code: "1305", Name: "上場ETFファンド", Sector: "Unknown", Size: "Unknown"},
		},
		Markets: map[string]string{
			"1305": "ETF・ETN",
		},
	}
}

func newTestHarvester(t *testing.T, srv *httptest.Server, layout pathing.Layout) (*Harvester, *storage.Local) {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	table := testTable()
	fetcher := tdnet.NewFetcher(tdnet.FetcherOptions{BaseURL: srv.URL, PagesPerSecond: 100})
	paginator := tdnet.NewPaginator(fetcher, srv.URL, tdnet.NewMarketFilter(table, nil))

	h := New(paginator, ratelimit.New(50), store, table, Options{
		BasePath:  "tdnet",
		Layout:    layout,
		BatchSize: 2, // forces multiple batches
	})
	return h, store
}

func TestHarvestDate_EndToEnd(t *testing.T) {
	srv := tdnetServer(t)
	h, store := newTestHarvester(t, srv, pathing.LayoutDate)

	stored, err := h.HarvestDate(context.Background(), "20240615")
	require.NoError(t, err)

	// Three classified, non-excluded documents: the unclassified notice
	// and the ETF row never reach storage.
	assert.Equal(t, 3, stored)

	keys, err := store.List(context.Background(), "tdnet/2024/06/15/")
	require.NoError(t, err)
	assert.Contains(t, keys, "tdnet/2024/06/15/tanshin/7203_2024年3月期_決算短信〔日本基準〕.pdf")
	assert.Contains(t, keys, "tdnet/2024/06/15/presentation/9432_決算説明資料.pdf")
	assert.Contains(t, keys, "tdnet/2024/06/15/tanshin/6501_業績予想の修正に関するお知らせ.pdf")

	data, err := store.ReadAll(context.Background(), pathing.MetadataKey("tdnet", "20240615"))
	require.NoError(t, err)

	var meta model.DateMetadata
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.NotEmpty(t, meta.RunID)
	assert.Equal(t, "20240615", meta.Date)
	assert.Equal(t, 3, meta.TotalDocuments)
	assert.Equal(t, map[string]int{"tanshin": 2, "presentation": 1}, meta.DocumentTypes)
	assert.Len(t, meta.Documents, 3)
	for _, rec := range meta.Documents {
		assert.NotEmpty(t, rec.StorageKey)
	}
}

func TestHarvestDate_SectorLayout(t *testing.T) {
	srv := tdnetServer(t)
	h, store := newTestHarvester(t, srv, pathing.LayoutSectors)

	stored, err := h.HarvestDate(context.Background(), "20240615")
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	keys, err := store.List(context.Background(), pathing.SectorsPrefix("tdnet"))
	require.NoError(t, err)
	assert.Contains(t, keys, "tdnet/sectors/輸送用機器/Core30/7203_トヨタ自動車_2024年3月期_決算短信〔日本基準〕.pdf")
	// Issuers missing from the reference table land in Unknown buckets.
	assert.Contains(t, keys, "tdnet/sectors/Unknown/Unknown/6501_日立製作所_業績予想の修正に関するお知らせ.pdf")
}

func TestHarvestDate_AbsentDate(t *testing.T) {
	srv := tdnetServer(t)
	h, store := newTestHarvester(t, srv, pathing.LayoutDate)

	stored, err := h.HarvestDate(context.Background(), "20240616")
	require.NoError(t, err)
	assert.Equal(t, 0, stored)

	// No sidecar for an empty date.
	_, err = store.ReadAll(context.Background(), pathing.MetadataKey("tdnet", "20240616"))
	assert.Error(t, err)
}

func TestHarvestRange(t *testing.T) {
	srv := tdnetServer(t)
	h, _ := newTestHarvester(t, srv, pathing.LayoutDate)

	// Only 20240615 has a listing; the surrounding dates are skipped.
	total, err := h.HarvestRange(context.Background(), "20240614", "20240616")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestHarvestRange_InvalidDates(t *testing.T) {
	srv := tdnetServer(t)
	h, _ := newTestHarvester(t, srv, pathing.LayoutDate)

	_, err := h.HarvestRange(context.Background(), "2024-06-15", "20240616")
	assert.Error(t, err)

	_, err = h.HarvestRange(context.Background(), "20240616", "20240615")
	assert.Error(t, err)
}
