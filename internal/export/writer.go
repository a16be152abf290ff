package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Visits"

type rowWriter interface {
	WriteHeader(cols []string) error
	WriteRow(values []any) error
	Close() error
}

func newRowWriter(f Format, w io.Writer) (rowWriter, error) {
	switch f {
	case FormatXLSX:
		return newXLSXWriter(w)
	default:
		return &csvWriter{w: csv.NewWriter(w)}, nil
	}
}

type csvWriter struct {
	w *csv.Writer
}

func (c *csvWriter) WriteHeader(cols []string) error {
	return c.w.Write(cols)
}

func (c *csvWriter) WriteRow(values []any) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = formatCell(v)
	}
	return c.w.Write(record)
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

// xlsxWriter streams rows into a single sheet; the workbook is serialized
// to the destination on Close.
type xlsxWriter struct {
	dst    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	header int
	row    int
}

func newXLSXWriter(dst io.Writer) (*xlsxWriter, error) {
	f := excelize.NewFile()
	if _, err := f.NewSheet(sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(sheetName); err == nil {
		f.SetActiveSheet(index)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open stream writer: %w", err)
	}
	return &xlsxWriter{dst: dst, file: f, stream: sw, header: header}, nil
}

func (x *xlsxWriter) WriteHeader(cols []string) error {
	if err := x.stream.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	cells := make([]any, len(cols))
	for i, c := range cols {
		cells[i] = excelize.Cell{StyleID: x.header, Value: c}
	}
	return x.next(cells)
}

func (x *xlsxWriter) WriteRow(values []any) error {
	return x.next(values)
}

func (x *xlsxWriter) next(values []any) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	return x.stream.SetRow(cell, values)
}

func (x *xlsxWriter) Close() error {
	defer x.file.Close()
	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := x.file.WriteTo(x.dst); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
