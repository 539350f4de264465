// Package excel renders tabular data sources into xlsx workbooks using
// excelize. Data sources abstract where rows come from; the exporter only
// concerns itself with layout and styling.
package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// DataSource supplies the rows of one worksheet.
type DataSource interface {
	// SheetName returns the worksheet the data lands on.
	SheetName() string
	// Open starts producing data and returns the column names together with
	// a row iterator. The iterator yields io.EOF after the last row.
	Open(ctx context.Context) ([]string, RowIterator, error)
}

// RowIterator walks rows one at a time. Close releases the underlying
// resources and is safe to call more than once.
type RowIterator interface {
	Next() ([]any, error)
	Close()
}

// ExportOptions controls workbook layout.
type ExportOptions struct {
	IncludeHeaders bool
	FreezeHeader   bool
	AutoFilter     bool
	// DateFormat renders time.Time cells as strings in the given layout.
	// Empty keeps excelize's native date cells.
	DateFormat string
	// MaxRows caps the exported data rows; 0 means no cap. Exceeding the cap
	// fails the export rather than truncating silently.
	MaxRows int
}

func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		IncludeHeaders: true,
		FreezeHeader:   true,
		DateFormat:     "2006-01-02",
	}
}

// StyleOptions controls cell styling. Nil members leave excelize defaults.
type StyleOptions struct {
	HeaderStyle *CellStyle
	DataStyle   *CellStyle
}

type CellStyle struct {
	Bold            bool
	FontSize        float64
	BackgroundColor string
}

func DefaultStyleOptions() *StyleOptions {
	return &StyleOptions{
		HeaderStyle: &CellStyle{
			Bold:            true,
			BackgroundColor: "DDEBF7",
		},
	}
}

// ExcelExporter writes a DataSource into a single-sheet xlsx workbook.
type ExcelExporter struct {
	opts  *ExportOptions
	style *StyleOptions
}

func NewExcelExporter(opts *ExportOptions, style *StyleOptions) *ExcelExporter {
	if opts == nil {
		opts = DefaultExportOptions()
	}
	if style == nil {
		style = &StyleOptions{}
	}
	return &ExcelExporter{opts: opts, style: style}
}

// Export renders the data source and returns the workbook bytes.
func (e *ExcelExporter) Export(ctx context.Context, ds DataSource) ([]byte, error) {
	columns, iter, err := ds.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("excel: open data source: %w", err)
	}
	defer iter.Close()

	if len(columns) == 0 {
		return nil, fmt.Errorf("excel: data source has no columns")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := ds.SheetName()
	if sheet == "" {
		sheet = defaultSheetName
	}
	if sheet != defaultSheetName {
		if err := f.SetSheetName(defaultSheetName, sheet); err != nil {
			return nil, fmt.Errorf("excel: rename sheet: %w", err)
		}
	}

	rowNum := 1
	if e.opts.IncludeHeaders {
		headerCells := make([]any, len(columns))
		for i, c := range columns {
			headerCells[i] = c
		}
		if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
			return nil, fmt.Errorf("excel: write header: %w", err)
		}
		if err := e.applyStyle(f, sheet, e.style.HeaderStyle, 1, 1, len(columns)); err != nil {
			return nil, err
		}
		rowNum = 2
	}

	dataRows := 0
	for {
		row, err := iter.Next()
		if err != nil {
			if isEOF(err) {
				break
			}
			return nil, fmt.Errorf("excel: read row: %w", err)
		}
		dataRows++
		if e.opts.MaxRows > 0 && dataRows > e.opts.MaxRows {
			return nil, fmt.Errorf("excel: export exceeds row cap of %d", e.opts.MaxRows)
		}

		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = e.convertCell(v)
		}
		anchor, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, fmt.Errorf("excel: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, anchor, &cells); err != nil {
			return nil, fmt.Errorf("excel: write row %d: %w", rowNum, err)
		}
		rowNum++
	}

	if e.opts.IncludeHeaders && dataRows > 0 {
		if err := e.applyStyle(f, sheet, e.style.DataStyle, 2, rowNum-1, len(columns)); err != nil {
			return nil, err
		}
	}

	if e.opts.FreezeHeader && e.opts.IncludeHeaders {
		err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return nil, fmt.Errorf("excel: freeze header: %w", err)
		}
	}

	if e.opts.AutoFilter && e.opts.IncludeHeaders {
		lastHeaderCell, err := excelize.CoordinatesToCellName(len(columns), 1)
		if err != nil {
			return nil, fmt.Errorf("excel: cell name: %w", err)
		}
		if err := f.AutoFilter(sheet, "A1:"+lastHeaderCell, nil); err != nil {
			return nil, fmt.Errorf("excel: auto filter: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *ExcelExporter) applyStyle(f *excelize.File, sheet string, style *CellStyle, fromRow, toRow, cols int) error {
	if style == nil {
		return nil
	}
	styleSpec := &excelize.Style{
		Font: &excelize.Font{
			Bold: style.Bold,
			Size: style.FontSize,
		},
	}
	if style.BackgroundColor != "" {
		styleSpec.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{style.BackgroundColor},
		}
	}
	styleID, err := f.NewStyle(styleSpec)
	if err != nil {
		return fmt.Errorf("excel: build style: %w", err)
	}
	from, err := excelize.CoordinatesToCellName(1, fromRow)
	if err != nil {
		return fmt.Errorf("excel: cell name: %w", err)
	}
	to, err := excelize.CoordinatesToCellName(cols, toRow)
	if err != nil {
		return fmt.Errorf("excel: cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, from, to, styleID); err != nil {
		return fmt.Errorf("excel: apply style: %w", err)
	}
	return nil
}
