package tabular

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
	row    int
}

// NewXLSX reads the first worksheet of a workbook. Short rows are padded to
// the header width since spreadsheets omit trailing empty cells.
func NewXLSX(payload []byte) (Reader, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, ErrNoHeader
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	x := &xlsxReader{file: f, rows: rows}
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			_ = x.Close()
			return nil, fmt.Errorf("read header: %w", err)
		}
		if !allBlank(cols) {
			x.header = cols
			break
		}
	}
	if x.header == nil {
		_ = x.Close()
		return nil, ErrNoHeader
	}
	return x, nil
}

func (x *xlsxReader) Header() []string { return x.header }

func (x *xlsxReader) Next() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, fmt.Errorf("read sheet: %w", err)
		}
		return nil, io.EOF
	}
	x.row++
	cols, err := x.rows.Columns()
	if err != nil {
		return nil, &RowError{Row: x.row, Err: err}
	}
	if len(cols) > len(x.header) {
		return nil, &RowError{Row: x.row, Err: fmt.Errorf("wrong number of fields: got %d, header has %d", len(cols), len(x.header))}
	}
	for len(cols) < len(x.header) {
		cols = append(cols, "")
	}
	return cols, nil
}

func (x *xlsxReader) Close() error {
	if x.rows != nil {
		_ = x.rows.Close()
	}
	return x.file.Close()
}

func allBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}
