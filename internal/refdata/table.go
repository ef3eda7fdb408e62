package refdata

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/kabuto-group/disclosure-cli/internal/model"
)

// Column headers of the exchange's listed-companies table.
const (
	columnCode   = "コード"
	columnName   = "銘柄名"
	columnMarket = "市場・商品区分"
	columnSector = "33業種区分"
	columnSize   = "規模区分"
)

// DefaultExcludedMarkets is the market-segment exclusion set applied when
// none is configured.
func DefaultExcludedMarkets() map[string]bool {
	return map[string]bool{
		"ETF・ETN":    true,
		"PRO Market": true,
		"REIT・ベンチャーファンド・カントリーファンド・インフラファンド": true,
		"出資証券":         true,
		"プライム（外国株式）":   true,
		"スタンダード（外国株式）": true,
		"グロース（外国株式）":   true,
	}
}

// Table is the loaded reference data: issuer attributes and market
// segments, both keyed by normalized code. Read-only after loading.
type Table struct {
	Issuers map[string]model.IssuerInfo
	Markets map[string]string
}

// Lookup returns the issuer attributes for a raw or normalized code.
func (t *Table) Lookup(code string) (model.IssuerInfo, bool) {
	info, ok := t.Issuers[NormalizeCode(code)]
	return info, ok
}

// Market resolves a document's market segment, trying the raw code first
// and the normalized code as fallback. Empty string means unmapped.
func (t *Table) Market(rawCode string) string {
	c := strings.ToUpper(strings.TrimSpace(rawCode))
	if m, ok := t.Markets[c]; ok {
		return m
	}
	return t.Markets[NormalizeCode(rawCode)]
}

// UniqueMarkets returns the distinct market segments present in the
// table, sorted. Used to audit the exclusion set against a fresh
// companies file.
func (t *Table) UniqueMarkets() []string {
	seen := map[string]bool{}
	var markets []string
	for _, m := range t.Markets {
		if !seen[m] {
			seen[m] = true
			markets = append(markets, m)
		}
	}
	sort.Strings(markets)
	return markets
}

// Load reads the reference table from a CSV or XLSX file, dispatching on
// the extension. A missing file is not fatal: it logs a warning and
// returns an empty table so downstream filters fail open.
func Load(path string) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zap.L().Warn("reference table not found, market filter and issuer attributes disabled",
			zap.String("path", path),
		)
		return &Table{Issuers: map[string]model.IssuerInfo{}, Markets: map[string]string{}}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(path)
	default:
		return loadCSV(path)
	}
}

func loadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open %s", path)
	}
	defer f.Close()

	rows, err := readCSVRows(f)
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// readCSVRows parses the file as UTF-8 first (stripping a BOM) and falls
// back to Shift_JIS when the expected code header is missing, since the
// exchange publishes both encodings.
func readCSVRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: read table")
	}
	data = stripBOM(data)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err == nil && len(rows) > 0 && columnIndex(rows[0], columnCode) >= 0 {
		return rows, nil
	}

	decoded, derr := io.ReadAll(transform.NewReader(strings.NewReader(string(data)), japanese.ShiftJIS.NewDecoder()))
	if derr != nil {
		if err != nil {
			return nil, eris.Wrap(err, "refdata: parse csv")
		}
		return nil, eris.Wrap(derr, "refdata: decode shift_jis")
	}
	rows, err = csv.NewReader(strings.NewReader(string(decoded))).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "refdata: parse csv")
	}
	return rows, nil
}

func loadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("refdata: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Table, error) {
	t := &Table{
		Issuers: make(map[string]model.IssuerInfo),
		Markets: make(map[string]string),
	}
	if len(rows) == 0 {
		return t, nil
	}

	header := rows[0]
	codeIdx := columnIndex(header, columnCode)
	if codeIdx < 0 {
		return nil, eris.Errorf("refdata: column %q not found in header", columnCode)
	}
	nameIdx := columnIndex(header, columnName)
	marketIdx := columnIndex(header, columnMarket)
	sectorIdx := columnIndex(header, columnSector)
	sizeIdx := columnIndex(header, columnSize)

	for _, row := range rows[1:] {
		code := cell(row, codeIdx)
		if code == "" {
			continue
		}
		norm := NormalizeCode(code)

		name := cell(row, nameIdx)
		if name == "" {
			name = Unknown
		}
		sector := cell(row, sectorIdx)
		if sector == "" {
			sector = Unknown
		}

		t.Issuers[norm] = model.IssuerInfo{
			Code:   norm,
			Name:   name,
			Sector: sector,
			Size:   NormalizeSize(cell(row, sizeIdx)),
		}
		if market := cell(row, marketIdx); market != "" {
			// Keyed under both forms so Market can resolve the raw
			// listing-page code without normalizing first.
			t.Markets[strings.ToUpper(code)] = market
			t.Markets[norm] = market
		}
	}

	return t, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
