// Package tabular turns an uploaded roster payload into a header and a
// sequence of rows, whatever the file type or field delimiter.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for file extensions no reader handles.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrNoHeader is returned when the payload has no header row.
var ErrNoHeader = errors.New("payload has no header row")

// Reader yields data rows after the header. Next returns io.EOF when the
// input is exhausted and a *RowError for a row that cannot be read but does
// not prevent reading the rows after it. Any other error is fatal.
type Reader interface {
	Header() []string
	Next() ([]string, error)
	Close() error
}

// RowError describes one unreadable data row. Row is 1-based and counts
// data rows only.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Kind selects a reader.
type Kind int

const (
	KindDelimited Kind = iota + 1
	KindXLSX
)

// KindFor maps a filename extension to a reader kind.
func KindFor(filename string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".csv", ".tsv", ".txt":
		return KindDelimited, nil
	case ".xlsx":
		return KindXLSX, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected .csv, .tsv, .txt or .xlsx)", ErrUnsupportedType, filename)
	}
}

// Open returns the reader for filename's type over payload.
func Open(filename string, payload []byte) (Reader, error) {
	kind, err := KindFor(filename)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ErrNoHeader
	}
	switch kind {
	case KindXLSX:
		return NewXLSX(payload)
	default:
		return NewDelimited(payload)
	}
}
