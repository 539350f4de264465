// Package csvimport parses comma-delimited exports of weekly KPI samples and
// staff rosters, validates them and reconciles each row against stored state
// by natural key. Rows are processed strictly in file order; every row-level
// failure is recorded and never aborts the rows after it.
package csvimport

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind selects which of the two fixed record schemas a payload carries.
type Kind string

const (
	KindKPI   Kind = "kpi"
	KindStaff Kind = "staff"
)

const dateLayout = "2006-01-02"

var (
	kpiHeader   = []string{"week_date", "efficiency", "production_rate", "defects_ppm"}
	staffHeader = []string{"name", "position", "department", "status"}
)

// Result is the outcome of one Ingest call. Success means the error list is
// empty; RecordsProcessed counts rows written regardless of Success, so a
// partially failed payload reports Success == false with a positive count.
type Result struct {
	Success          bool     `json:"success"`
	RecordsProcessed int      `json:"records_processed"`
	Errors           []string `json:"errors"`
}

// Ingestor validates and upserts CSV payloads through an injected Store.
type Ingestor struct {
	store Store
}

func New(store Store) *Ingestor {
	return &Ingestor{store: store}
}

// Ingest processes one raw payload of the given kind. It always returns a
// Result; input-level failures (empty payload, headers only, unknown kind,
// header mismatch) abort before any row is examined, while row-level failures
// are collected per row. The first line is the header, so the first data row
// is reported as row 2.
func (i *Ingestor) Ingest(ctx context.Context, kind Kind, rawText string) Result {
	result := Result{Errors: make([]string, 0)}

	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		result.Errors = append(result.Errors, "CSV data is empty")
		return result
	}

	lines := splitLines(trimmed)
	if len(lines) < 2 {
		result.Errors = append(result.Errors, "CSV contains only headers, no data rows")
		return result
	}

	var expected []string
	switch kind {
	case KindKPI:
		expected = kpiHeader
	case KindStaff:
		expected = staffHeader
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid type '%s'. Must be 'kpi' or 'staff'", kind))
		return result
	}

	if msg := validateHeader(splitCells(lines[0]), expected); msg != "" {
		result.Errors = append(result.Errors, msg)
		return result
	}

	for dataRow, line := range lines[1:] {
		// The header occupies line 1, so the first data row reports as row 2.
		rowIndex := dataRow + 2
		cells := splitCells(line)
		if len(cells) != len(expected) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: Expected %d columns, got %d", rowIndex, len(expected), len(cells)))
			continue
		}

		var msg string
		switch kind {
		case KindKPI:
			msg = i.ingestKPIRow(ctx, rowIndex, cells)
		case KindStaff:
			msg = i.ingestStaffRow(ctx, rowIndex, cells)
		}
		if msg != "" {
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.RecordsProcessed++
	}

	result.Success = len(result.Errors) == 0
	return result
}

// ingestKPIRow validates one KPI data row and upserts it by week date.
// It returns the row's error message, or "" when the row was written.
func (i *Ingestor) ingestKPIRow(ctx context.Context, rowIndex int, cells []string) string {
	weekDate := cells[0]
	efficiency, efficiencyOK := parseNumber(cells[1])
	productionRate, productionRateOK := parseNumber(cells[2])
	defectsPPM, defectsPPMOK := parseNumber(cells[3])

	var violations []string
	if _, err := time.Parse(dateLayout, weekDate); err != nil {
		violations = append(violations, "week_date must be a valid date")
	}
	switch {
	case !efficiencyOK:
		violations = append(violations, "efficiency must be a number")
	case efficiency < 0 || efficiency > 100:
		violations = append(violations, "efficiency must be between 0 and 100")
	}
	switch {
	case !productionRateOK:
		violations = append(violations, "production_rate must be a number")
	case productionRate < 0:
		violations = append(violations, "production_rate must be at least 0")
	}
	switch {
	case !defectsPPMOK:
		violations = append(violations, "defects_ppm must be a number")
	case defectsPPM < 0:
		violations = append(violations, "defects_ppm must be at least 0")
	}
	if len(violations) > 0 {
		return fmt.Sprintf("Row %d: %s", rowIndex, strings.Join(violations, ", "))
	}

	_, err := i.store.FindKPIByWeekDate(ctx, weekDate)
	switch {
	case err == nil:
		update := KPIUpdate{
			Efficiency:     &efficiency,
			ProductionRate: &productionRate,
			DefectsPPM:     &defectsPPM,
		}
		if _, err := i.store.UpdateKPI(ctx, weekDate, update); err != nil {
			return databaseError(rowIndex, err)
		}
	case isNotFound(err):
		fields := KPIFields{
			WeekDate:       weekDate,
			Efficiency:     efficiency,
			ProductionRate: productionRate,
			DefectsPPM:     defectsPPM,
		}
		if _, err := i.store.InsertKPI(ctx, fields); err != nil {
			return databaseError(rowIndex, err)
		}
	default:
		return databaseError(rowIndex, err)
	}
	return ""
}

// ingestStaffRow validates one staff data row and upserts it by the
// (name, department) pair. It returns the row's error message, or "" when the
// row was written.
func (i *Ingestor) ingestStaffRow(ctx context.Context, rowIndex int, cells []string) string {
	name, position, department, status := cells[0], cells[1], cells[2], cells[3]

	// Status is checked case-sensitively before anything else; an invalid
	// status short-circuits the row with its own message.
	if status != "active" && status != "on_vacation" {
		return fmt.Sprintf("Row %d: Invalid status '%s'. Must be 'active' or 'on_vacation'", rowIndex, status)
	}

	var violations []string
	if name == "" {
		violations = append(violations, "name must not be empty")
	}
	if position == "" {
		violations = append(violations, "position must not be empty")
	}
	if department == "" {
		violations = append(violations, "department must not be empty")
	}
	if len(violations) > 0 {
		return fmt.Sprintf("Row %d: %s", rowIndex, strings.Join(violations, ", "))
	}

	existing, err := i.store.FindStaffByNameAndDepartment(ctx, name, department)
	switch {
	case err == nil:
		update := StaffUpdate{
			Position: &position,
			Status:   &status,
		}
		if _, err := i.store.UpdateStaff(ctx, existing.ID, update); err != nil {
			return databaseError(rowIndex, err)
		}
	case isNotFound(err):
		fields := StaffFields{
			Name:       name,
			Position:   position,
			Department: department,
			Status:     status,
		}
		if _, err := i.store.InsertStaff(ctx, fields); err != nil {
			return databaseError(rowIndex, err)
		}
	default:
		return databaseError(rowIndex, err)
	}
	return ""
}

// validateHeader compares the trimmed header cells against the expected
// sequence and returns the message for the first mismatch, or "".
func validateHeader(cells, expected []string) string {
	if len(cells) != len(expected) {
		return fmt.Sprintf("Invalid headers. Expected %d columns, got %d", len(expected), len(cells))
	}
	for pos, want := range expected {
		if cells[pos] != want {
			return fmt.Sprintf("Invalid header at position %d: expected '%s', got '%s'", pos+1, want, cells[pos])
		}
	}
	return ""
}

// splitLines splits the trimmed payload into trimmed non-blank lines,
// tolerating both \n and \r\n endings.
func splitLines(trimmed string) []string {
	raw := strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// parseNumber parses a finite float. NaN and infinities count as
// not-a-number so they surface as validation violations, not stored values.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func databaseError(rowIndex int, err error) string {
	return fmt.Sprintf("Row %d: Database error - %s", rowIndex, err.Error())
}
