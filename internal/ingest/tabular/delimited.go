package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SniffBytes is how much of the decoded payload DetectDelimiter inspects.
const SniffBytes = 1000

// Candidates in priority order; ties go to the earlier one.
var delimiterCandidates = []byte{',', '\t', ';'}

// DetectDelimiter counts each candidate in the first SniffBytes of text and
// returns the most frequent. All-zero counts yield a comma.
func DetectDelimiter(text []byte) rune {
	if len(text) > SniffBytes {
		text = text[:SniffBytes]
	}
	best := delimiterCandidates[0]
	bestCount := -1
	for _, c := range delimiterCandidates {
		if n := bytes.Count(text, []byte{c}); n > bestCount {
			best, bestCount = c, n
		}
	}
	return rune(best)
}

// Decode strips a UTF-8 byte order mark and converts UTF-16 payloads
// (detected by their BOM) to UTF-8.
func Decode(payload []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

type delimited struct {
	r      *csv.Reader
	header []string
	row    int
}

// NewDelimited reads delimited text with a sniffed delimiter. Quotes are
// parsed leniently and rows whose field count differs from the header are
// reported as *RowError.
func NewDelimited(payload []byte) (Reader, error) {
	text, err := Decode(payload)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = DetectDelimiter(text)
	r.LazyQuotes = true
	// Values are trimmed by the caller; TrimLeadingSpace would also eat
	// empty tab-separated fields.
	r.TrimLeadingSpace = false

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	r.FieldsPerRecord = len(header)

	return &delimited{r: r, header: header}, nil
}

func (d *delimited) Header() []string { return d.header }

func (d *delimited) Next() ([]string, error) {
	record, err := d.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	d.row++
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &RowError{Row: d.row, Err: perr.Err}
		}
		return nil, err
	}
	return record, nil
}

func (d *delimited) Close() error { return nil }
