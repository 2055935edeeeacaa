// internal/core/ingest/table.go
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Table is a raw 2D table: the header row plus data rows keyed by header.
// Header order is preserved so reports can reproduce the input layout.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Empty reports whether the table holds no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Get returns the cell for header h on row i, or "" when absent.
func (t Table) Get(i int, h string) string {
	if i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][h]
}

// csvEncodings is the ordered fallback list tried for CSV uploads before
// force-decoding with replacement characters.
var csvEncodings = []encoding.Encoding{
	nil, // utf-8, validated directly
	charmap.ISO8859_1,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// LoadTable reads an uploaded spreadsheet into a Table. The format is
// picked from the file extension: .csv (with encoding fallback), .xlsx,
// or legacy .xls. Only the first sheet of a workbook is read.
func LoadTable(r io.Reader, filename string) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return loadCSV(data)
	case ".xlsx", ".xlsm":
		return loadXLSX(data)
	case ".xls":
		return loadXLS(data)
	default:
		return Table{}, fmt.Errorf("unsupported file format: %s", filepath.Ext(filename))
	}
}

func loadCSV(data []byte) (Table, error) {
	text, err := decodeCSVBytes(data)
	if err != nil {
		return Table{}, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parsing CSV: %w", err)
	}
	return fromRecords(records), nil
}

// decodeCSVBytes walks the fallback encoding list in order and returns the
// first successful decode. Exhausting the list force-decodes as UTF-8 with
// replacement characters instead of failing the upload.
func decodeCSVBytes(data []byte) (string, error) {
	for _, enc := range csvEncodings {
		if enc == nil {
			if utf8.Valid(data) {
				return string(data), nil
			}
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

func loadXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return fromRecords(rows), nil
}

func loadXLS(data []byte) (Table, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// Some exports carry an .xls extension over xlsx content.
		if t, errX := loadXLSX(data); errX == nil {
			return t, nil
		}
		return Table{}, fmt.Errorf("opening .xls workbook: %w", err)
	}

	var records [][]string
	sheets := workbook.GetSheets()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("workbook has no sheets")
	}
	for _, row := range sheets[0].GetRows() {
		var rec []string
		for _, cell := range row.GetCols() {
			rec = append(rec, cell.GetString())
		}
		records = append(records, rec)
	}
	return fromRecords(records), nil
}

// fromRecords builds a Table from raw rows, the first being headers.
// Short rows are padded; fully blank rows are skipped.
func fromRecords(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.ReplaceAll(h, `"`, ""))
	}

	t := Table{Headers: headers}
	for _, rec := range records[1:] {
		blank := true
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			var v string
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			if v != "" {
				blank = false
			}
			row[h] = v
		}
		if !blank {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}
