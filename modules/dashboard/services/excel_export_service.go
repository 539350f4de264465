package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantboard/plantboard/pkg/excel"
	"github.com/plantboard/plantboard/pkg/repo"
)

const (
	// Column aliases double as spreadsheet headers.
	kpiExportQuery = `
		SELECT
			k.week_date AS week_date,
			k.efficiency AS efficiency,
			k.production_rate AS production_rate,
			k.defects_ppm AS defects_ppm
		FROM kpi_data k`

	staffExportQuery = `
		SELECT
			m.name AS name,
			m.position AS position,
			m.department AS department,
			m.status AS status
		FROM staff_members m`
)

// ExportFormat selects the wire format of an export.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

func (f ExportFormat) IsValid() bool {
	switch f {
	case FormatXLSX, FormatCSV:
		return true
	}
	return false
}

// ExcelExportService renders dashboard data as spreadsheet files. Exports
// query the pool directly so large snapshots stream without holding a
// transaction open.
type ExcelExportService struct {
	pool *pgxpool.Pool
}

func NewExcelExportService(pool *pgxpool.Pool) *ExcelExportService {
	return &ExcelExportService{pool: pool}
}

// ExportKPIData renders weekly samples between from and to, both optional,
// ordered chronologically. It returns the file contents and a suggested
// filename.
func (s *ExcelExportService) ExportKPIData(ctx context.Context, format ExportFormat, from, to time.Time) ([]byte, string, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if !from.IsZero() {
		args = append(args, from)
		where = append(where, fmt.Sprintf("k.week_date >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		where = append(where, fmt.Sprintf("k.week_date <= $%d", len(args)))
	}

	query := repo.Join(kpiExportQuery, repo.JoinWhere(where...), "ORDER BY k.week_date ASC")
	return s.export(ctx, "kpi", format, "KPI Data", query, args...)
}

// ExportStaff renders the roster, optionally limited to one department,
// ordered by name.
func (s *ExcelExportService) ExportStaff(ctx context.Context, format ExportFormat, department string) ([]byte, string, error) {
	where := make([]string, 0, 1)
	args := make([]interface{}, 0, 1)
	if department != "" {
		args = append(args, department)
		where = append(where, fmt.Sprintf("m.department = $%d", len(args)))
	}

	query := repo.Join(staffExportQuery, repo.JoinWhere(where...), "ORDER BY m.name ASC, m.department ASC")
	return s.export(ctx, "staff", format, "Staff", query, args...)
}

func (s *ExcelExportService) export(ctx context.Context, kind string, format ExportFormat, sheet, query string, args ...interface{}) ([]byte, string, error) {
	if format == "" {
		format = FormatXLSX
	}
	if !format.IsValid() {
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}

	datasource := excel.NewPgxDataSource(s.pool, query, args...).WithSheetName(sheet)

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = excel.ExportCSV(ctx, datasource)
	default:
		exporter := excel.NewExcelExporter(excel.DefaultExportOptions(), excel.DefaultStyleOptions())
		data, err = exporter.Export(ctx, datasource)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to export %s data: %w", kind, err)
	}

	recordExportMetrics(kind, string(format))

	filename := fmt.Sprintf("%s_export_%s.%s", kind, time.Now().Format("20060102_150405"), format)
	return data, filename, nil
}
