package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// table is a header-addressed CSV reader
type table struct {
	reader *csv.Reader
	cols   map[string]int
	line   int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	return &table{reader: reader, cols: cols, line: 1}, nil
}

// next returns the next record, or io.EOF
func (t *table) next() (csvRow, error) {
	record, err := t.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return csvRow{}, io.EOF
		}
		return csvRow{}, fmt.Errorf("error reading record: %w", err)
	}
	t.line++
	return csvRow{record: record, cols: t.cols, line: t.line}, nil
}

type csvRow struct {
	record []string
	cols   map[string]int
	line   int
}

func (r csvRow) str(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r csvRow) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: "+format, append([]interface{}{r.line}, args...)...)
}

func (r csvRow) integer(col string, fallback int) (int, error) {
	raw := r.str(col)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, r.errorf("%s: %q is not an integer", col, raw)
	}
	return v, nil
}

func (r csvRow) float(col string, fallback float64) (float64, error) {
	raw := r.str(col)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, r.errorf("%s: %q is not a number", col, raw)
	}
	return v, nil
}

func (r csvRow) boolean(col string, fallback bool) (bool, error) {
	raw := r.str(col)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, r.errorf("%s: %q is not a boolean", col, raw)
	}
	return v, nil
}

func (r csvRow) money(col string) (decimal.Decimal, error) {
	raw := r.str(col)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, r.errorf("%s: %q is not an amount", col, raw)
	}
	return v, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// timestamp parses RFC3339, or a zone-less wall clock time in loc
func (r csvRow) timestamp(col string, loc *time.Location) (*time.Time, error) {
	raw := r.str(col)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	return nil, r.errorf("%s: %q is not a timestamp", col, raw)
}
