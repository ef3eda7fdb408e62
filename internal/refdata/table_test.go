package refdata

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const companiesCSV = "コード,銘柄名,市場・商品区分,33業種区分,規模区分\n" +
	"72030,トヨタ自動車,プライム（内国株式）,輸送用機器,TOPIX Core30\n" +
	"13050,ｉＦｒｅｅＥＴＦ　ＴＯＰＩＸ,ETF・ETN,-,-\n" +
	"65010,日立製作所,プライム（内国株式）,電気機器,TOPIX Core30\n" +
	",空行コード,プライム（内国株式）,水産・農林業,-\n"

func writeTable(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_CSV(t *testing.T) {
	table, err := Load(writeTable(t, "companies.csv", []byte(companiesCSV)))
	require.NoError(t, err)

	info, ok := table.Lookup("7203")
	require.True(t, ok)
	assert.Equal(t, "トヨタ自動車", info.Name)
	assert.Equal(t, "輸送用機器", info.Sector)
	assert.Equal(t, "Core30", info.Size)

	// Raw 5-character codes resolve through normalization.
	_, ok = table.Lookup("65010")
	assert.True(t, ok)

	// The ETF row keeps its market segment and its size becomes Unknown.
	assert.Equal(t, "ETF・ETN", table.Market("13050"))
	etf, ok := table.Lookup("1305")
	require.True(t, ok)
	assert.Equal(t, Unknown, etf.Size)

	// Rows without a code are dropped.
	assert.Len(t, table.Issuers, 3)
}

func TestLoad_CSVWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(companiesCSV)...)
	table, err := Load(writeTable(t, "companies.csv", data))
	require.NoError(t, err)

	_, ok := table.Lookup("7203")
	assert.True(t, ok)
}

func TestLoad_CSVShiftJIS(t *testing.T) {
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, japanese.ShiftJIS.NewEncoder())
	_, err := w.Write([]byte("コード,銘柄名,市場・商品区分,33業種区分,規模区分\n" +
		"72030,トヨタ自動車,プライム（内国株式）,輸送用機器,TOPIX Core30\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	table, err := Load(writeTable(t, "companies.csv", buf.Bytes()))
	require.NoError(t, err)

	info, ok := table.Lookup("7203")
	require.True(t, ok)
	assert.Equal(t, "トヨタ自動車", info.Name)
}

func TestLoad_MissingFileFailsOpen(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, table.Issuers)
	assert.Empty(t, table.Markets)
	assert.Equal(t, "", table.Market("7203"))
}

func TestMarket_NormalizedFallback(t *testing.T) {
	table, err := Load(writeTable(t, "companies.csv", []byte(companiesCSV)))
	require.NoError(t, err)

	// 13050 was stored under its normalized key; both forms resolve.
	assert.Equal(t, "ETF・ETN", table.Market("1305"))
	assert.Equal(t, "ETF・ETN", table.Market("13050"))
	assert.Equal(t, "", table.Market("9999"))
}

func TestMarket_KeyedByRawAndNormalizedCode(t *testing.T) {
	table, err := Load(writeTable(t, "companies.csv", []byte(companiesCSV)))
	require.NoError(t, err)

	// The raw CSV code resolves directly, without the normalized
	// fallback, and the normalized key is present alongside it.
	assert.Equal(t, "ETF・ETN", table.Markets["13050"])
	assert.Equal(t, "ETF・ETN", table.Markets["1305"])
}

func TestUniqueMarkets(t *testing.T) {
	table, err := Load(writeTable(t, "companies.csv", []byte(companiesCSV)))
	require.NoError(t, err)

	assert.Equal(t, []string{"ETF・ETN", "プライム（内国株式）"}, table.UniqueMarkets())
	assert.Empty(t, (&Table{Markets: map[string]string{}}).UniqueMarkets())
}

func TestFromRows_MissingFields(t *testing.T) {
	rows := [][]string{
		{"コード", "銘柄名", "市場・商品区分", "33業種区分", "規模区分"},
		{"1301", "", "プライム（内国株式）", "", "-"},
	}
	table, err := fromRows(rows)
	require.NoError(t, err)

	info, ok := table.Lookup("1301")
	require.True(t, ok)
	assert.Equal(t, Unknown, info.Name)
	assert.Equal(t, Unknown, info.Sector)
	assert.Equal(t, Unknown, info.Size)
}
