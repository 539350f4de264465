package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
)

// ExportCSV renders the data source as comma-delimited text with a header
// line. It shares the DataSource abstraction with the xlsx exporter so both
// formats read the same query.
func ExportCSV(ctx context.Context, ds DataSource) ([]byte, error) {
	columns, iter, err := ds.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("csv: open data source: %w", err)
	}
	defer iter.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	record := make([]string, len(columns))
	for {
		row, err := iter.Next()
		if err != nil {
			if isEOF(err) {
				break
			}
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		if len(row) != len(columns) {
			return nil, fmt.Errorf("csv: row has %d values, expected %d", len(row), len(columns))
		}
		for i, v := range row {
			record[i] = formatTextValue(v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}
