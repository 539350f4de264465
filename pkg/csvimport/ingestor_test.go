package csvimport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	nextID uint
	kpi    []KPIRecord
	staff  []StaffRecord

	findKPIErr     error
	insertKPIErr   error
	updateKPIErr   error
	findStaffErr   error
	insertStaffErr error
	updateStaffErr error
}

func (s *fakeStore) FindKPIByWeekDate(_ context.Context, weekDate string) (KPIRecord, error) {
	if s.findKPIErr != nil {
		return KPIRecord{}, s.findKPIErr
	}
	for _, r := range s.kpi {
		if r.WeekDate == weekDate {
			return r, nil
		}
	}
	return KPIRecord{}, ErrNotFound
}

func (s *fakeStore) InsertKPI(_ context.Context, fields KPIFields) (KPIRecord, error) {
	if s.insertKPIErr != nil {
		return KPIRecord{}, s.insertKPIErr
	}
	s.nextID++
	rec := KPIRecord{
		ID:             s.nextID,
		WeekDate:       fields.WeekDate,
		Efficiency:     fields.Efficiency,
		ProductionRate: fields.ProductionRate,
		DefectsPPM:     fields.DefectsPPM,
	}
	s.kpi = append(s.kpi, rec)
	return rec, nil
}

func (s *fakeStore) UpdateKPI(_ context.Context, weekDate string, update KPIUpdate) (KPIRecord, error) {
	if s.updateKPIErr != nil {
		return KPIRecord{}, s.updateKPIErr
	}
	for i := range s.kpi {
		if s.kpi[i].WeekDate != weekDate {
			continue
		}
		if update.Efficiency != nil {
			s.kpi[i].Efficiency = *update.Efficiency
		}
		if update.ProductionRate != nil {
			s.kpi[i].ProductionRate = *update.ProductionRate
		}
		if update.DefectsPPM != nil {
			s.kpi[i].DefectsPPM = *update.DefectsPPM
		}
		return s.kpi[i], nil
	}
	return KPIRecord{}, ErrNotFound
}

func (s *fakeStore) FindStaffByNameAndDepartment(_ context.Context, name, department string) (StaffRecord, error) {
	if s.findStaffErr != nil {
		return StaffRecord{}, s.findStaffErr
	}
	for _, r := range s.staff {
		if r.Name == name && r.Department == department {
			return r, nil
		}
	}
	return StaffRecord{}, ErrNotFound
}

func (s *fakeStore) InsertStaff(_ context.Context, fields StaffFields) (StaffRecord, error) {
	if s.insertStaffErr != nil {
		return StaffRecord{}, s.insertStaffErr
	}
	s.nextID++
	rec := StaffRecord{
		ID:         s.nextID,
		Name:       fields.Name,
		Position:   fields.Position,
		Department: fields.Department,
		Status:     fields.Status,
	}
	s.staff = append(s.staff, rec)
	return rec, nil
}

func (s *fakeStore) UpdateStaff(_ context.Context, id uint, update StaffUpdate) (StaffRecord, error) {
	if s.updateStaffErr != nil {
		return StaffRecord{}, s.updateStaffErr
	}
	for i := range s.staff {
		if s.staff[i].ID != id {
			continue
		}
		if update.Position != nil {
			s.staff[i].Position = *update.Position
		}
		if update.Status != nil {
			s.staff[i].Status = *update.Status
		}
		return s.staff[i], nil
	}
	return StaffRecord{}, ErrNotFound
}

func newIngestor() (*Ingestor, *fakeStore) {
	store := &fakeStore{}
	return New(store), store
}

func TestIngest_EmptyPayload(t *testing.T) {
	t.Parallel()

	want := Result{Success: false, RecordsProcessed: 0, Errors: []string{"CSV data is empty"}}
	for _, payload := range []string{"", "   ", "\n\t  \n"} {
		ingestor, store := newIngestor()
		require.Equal(t, want, ingestor.Ingest(context.Background(), KindKPI, payload))
		require.Empty(t, store.kpi)
	}

	// The payload is checked before the kind, so even an unknown kind
	// reports the empty payload.
	ingestor, _ := newIngestor()
	require.Equal(t, want, ingestor.Ingest(context.Background(), "bogus", ""))
}

func TestIngest_HeadersOnly(t *testing.T) {
	t.Parallel()

	want := Result{Success: false, RecordsProcessed: 0, Errors: []string{"CSV contains only headers, no data rows"}}

	ingestor, store := newIngestor()
	require.Equal(t, want, ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm"))
	require.Empty(t, store.kpi)

	ingestor, _ = newIngestor()
	require.Equal(t, want, ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\n"))

	// A single line is headers-only regardless of the kind.
	ingestor, _ = newIngestor()
	require.Equal(t, want, ingestor.Ingest(context.Background(), "bogus", "whatever"))
}

func TestIngest_UnknownKind(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	result := ingestor.Ingest(context.Background(), "metrics", "week_date,efficiency,production_rate,defects_ppm\n2024-01-01,95,120,150")

	require.Equal(t, Result{
		Success:          false,
		RecordsProcessed: 0,
		Errors:           []string{"Invalid type 'metrics'. Must be 'kpi' or 'staff'"},
	}, result)
	require.Empty(t, store.kpi)
	require.Empty(t, store.staff)
}

func TestIngest_HeaderValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing column", func(t *testing.T) {
		ingestor, store := newIngestor()
		result := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate\n2024-01-01,95,120")

		require.False(t, result.Success)
		require.Zero(t, result.RecordsProcessed)
		require.Equal(t, []string{"Invalid headers. Expected 4 columns, got 3"}, result.Errors)
		require.Empty(t, store.kpi, "header failure must short-circuit before any row")
	})

	t.Run("extra column", func(t *testing.T) {
		ingestor, _ := newIngestor()
		result := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm,notes\n2024-01-01,95,120,150,ok")

		require.Equal(t, []string{"Invalid headers. Expected 4 columns, got 5"}, result.Errors)
	})

	t.Run("misspelled column", func(t *testing.T) {
		ingestor, _ := newIngestor()
		result := ingestor.Ingest(context.Background(), KindKPI, "week_date,eff,production_rate,defects_ppm\n2024-01-01,95,120,150")

		require.Equal(t, []string{"Invalid header at position 2: expected 'efficiency', got 'eff'"}, result.Errors)
	})

	t.Run("wrong order", func(t *testing.T) {
		ingestor, _ := newIngestor()
		result := ingestor.Ingest(context.Background(), KindStaff, "position,name,department,status\nDev,John,Engineering,active")

		require.Equal(t, []string{"Invalid header at position 1: expected 'name', got 'position'"}, result.Errors)
	})

	t.Run("padded header cells are trimmed", func(t *testing.T) {
		ingestor, store := newIngestor()
		result := ingestor.Ingest(context.Background(), KindKPI, " week_date , efficiency ,production_rate,  defects_ppm\n2024-01-01,95,120,150")

		require.Equal(t, Result{Success: true, RecordsProcessed: 1, Errors: []string{}}, result)
		require.Len(t, store.kpi, 1)
	})
}

func TestIngest_KPI_ValidRows(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"2024-01-01,95.5,120,150\n" +
		"2024-01-08,92.3,118.5,175.2"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, result)
	require.Len(t, store.kpi, 2)
	require.Equal(t, KPIRecord{ID: 1, WeekDate: "2024-01-01", Efficiency: 95.5, ProductionRate: 120, DefectsPPM: 150}, store.kpi[0])
	require.Equal(t, KPIRecord{ID: 2, WeekDate: "2024-01-08", Efficiency: 92.3, ProductionRate: 118.5, DefectsPPM: 175.2}, store.kpi[1])
}

func TestIngest_KPI_Idempotent(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"2024-01-01,95.5,120,150\n" +
		"2024-01-08,92.3,118.5,175.2"

	first := ingestor.Ingest(context.Background(), KindKPI, payload)
	second := ingestor.Ingest(context.Background(), KindKPI, payload)

	require.Equal(t, first, second)
	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, second)
	require.Len(t, store.kpi, 2, "re-ingest must update, not duplicate")
	require.Equal(t, 95.5, store.kpi[0].Efficiency)
}

func TestIngest_KPI_UpdateExistingWeek(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	seed := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm\n2024-01-01,95.5,120,150")
	require.True(t, seed.Success)

	result := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm\n2024-01-01,88,110,210")

	require.Equal(t, Result{Success: true, RecordsProcessed: 1, Errors: []string{}}, result)
	require.Len(t, store.kpi, 1)
	require.Equal(t, KPIRecord{ID: 1, WeekDate: "2024-01-01", Efficiency: 88, ProductionRate: 110, DefectsPPM: 210}, store.kpi[0])
}

func TestIngest_KPI_MixedInvalidAndValid(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"invalid-date,105.5,-10,abc\n" +
		"2024-01-08,92.5,110,140"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	require.False(t, result.Success)
	require.Equal(t, 1, result.RecordsProcessed)
	require.Len(t, result.Errors, 1, "all violations of one row aggregate into one error")
	require.Equal(t,
		"Row 2: week_date must be a valid date, efficiency must be between 0 and 100, production_rate must be at least 0, defects_ppm must be a number",
		result.Errors[0])

	require.Len(t, store.kpi, 1)
	require.Equal(t, "2024-01-08", store.kpi[0].WeekDate)
}

func TestIngest_KPI_ColumnCountMismatch(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"not-a-date,999\n" +
		"2024-01-08,92.5,110,140"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	require.False(t, result.Success)
	require.Equal(t, 1, result.RecordsProcessed)
	// A short row gets the structural error only; its cell values are never
	// validated.
	require.Equal(t, []string{"Row 2: Expected 4 columns, got 2"}, result.Errors)
	require.Len(t, store.kpi, 1)
}

func TestIngest_KPI_ErrorsAccumulateInRowOrder(t *testing.T) {
	t.Parallel()

	ingestor, _ := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"2024-01-01,95,120\n" +
		"bad-date,95,120,150\n" +
		"2024-01-15,101,120,150\n" +
		"2024-01-22,95,120,150"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	require.False(t, result.Success)
	require.Equal(t, 1, result.RecordsProcessed)
	require.Equal(t, []string{
		"Row 2: Expected 4 columns, got 3",
		"Row 3: week_date must be a valid date",
		"Row 4: efficiency must be between 0 and 100",
	}, result.Errors)
}

func TestIngest_KPI_BoundaryValues(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"2024-01-01,0,0,0\n" +
		"2024-01-08,100,250.75,9999"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, result)
	require.Len(t, store.kpi, 2)

	over := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm\n2024-01-15,100.1,0,0")
	require.Equal(t, []string{"Row 2: efficiency must be between 0 and 100"}, over.Errors)
}

func TestIngest_KPI_NonFiniteNumbersRejected(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	result := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm\n2024-01-01,NaN,Inf,150")

	require.Equal(t, []string{"Row 2: efficiency must be a number, production_rate must be a number"}, result.Errors)
	require.Empty(t, store.kpi)
}

func TestIngest_KPI_SameWeekTwiceInOneFile(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"2024-01-01,95.5,120,150\n" +
		"2024-01-01,90,100,200"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	// The second row's lookup observes the first row's insert and updates it.
	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, result)
	require.Len(t, store.kpi, 1)
	require.Equal(t, KPIRecord{ID: 1, WeekDate: "2024-01-01", Efficiency: 90, ProductionRate: 100, DefectsPPM: 200}, store.kpi[0])
}

func TestIngest_KPI_StoreErrors(t *testing.T) {
	t.Parallel()

	t.Run("lookup failure is recorded per row and rows continue", func(t *testing.T) {
		ingestor, store := newIngestor()
		store.findKPIErr = errors.New("connection refused")

		payload := "week_date,efficiency,production_rate,defects_ppm\n" +
			"2024-01-01,95,120,150\n" +
			"2024-01-08,92,110,140"
		result := ingestor.Ingest(context.Background(), KindKPI, payload)

		require.False(t, result.Success)
		require.Zero(t, result.RecordsProcessed)
		require.Equal(t, []string{
			"Row 2: Database error - connection refused",
			"Row 3: Database error - connection refused",
		}, result.Errors)
	})

	t.Run("insert failure", func(t *testing.T) {
		ingestor, store := newIngestor()
		store.insertKPIErr = errors.New("duplicate key value violates unique constraint \"kpi_data_week_date_key\"")

		result := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm\n2024-01-01,95,120,150")

		require.Equal(t, []string{
			"Row 2: Database error - duplicate key value violates unique constraint \"kpi_data_week_date_key\"",
		}, result.Errors)
		require.Zero(t, result.RecordsProcessed)
	})

	t.Run("update failure", func(t *testing.T) {
		ingestor, store := newIngestor()
		seed := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm\n2024-01-01,95,120,150")
		require.True(t, seed.Success)

		store.updateKPIErr = errors.New("write timeout")
		result := ingestor.Ingest(context.Background(), KindKPI, "week_date,efficiency,production_rate,defects_ppm\n2024-01-01,90,100,200")

		require.Equal(t, []string{"Row 2: Database error - write timeout"}, result.Errors)
		require.Equal(t, 95.0, store.kpi[0].Efficiency, "failed update must leave the record untouched")
	})
}

func TestIngest_Staff_ValidRows(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "name,position,department,status\n" +
		"John Smith,Line Operator,Assembly,active\n" +
		"Maria Garcia,Shift Supervisor,Quality Control,on_vacation"

	result := ingestor.Ingest(context.Background(), KindStaff, payload)

	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, result)
	require.Len(t, store.staff, 2)
	require.Equal(t, StaffRecord{ID: 1, Name: "John Smith", Position: "Line Operator", Department: "Assembly", Status: "active"}, store.staff[0])
	require.Equal(t, StaffRecord{ID: 2, Name: "Maria Garcia", Position: "Shift Supervisor", Department: "Quality Control", Status: "on_vacation"}, store.staff[1])
}

func TestIngest_Staff_InvalidStatus(t *testing.T) {
	t.Parallel()

	t.Run("unknown value", func(t *testing.T) {
		ingestor, store := newIngestor()
		result := ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\nJohn,Dev,Engineering,vacation")

		require.Equal(t, []string{"Row 2: Invalid status 'vacation'. Must be 'active' or 'on_vacation'"}, result.Errors)
		require.Empty(t, store.staff)
	})

	t.Run("status is case-sensitive", func(t *testing.T) {
		ingestor, _ := newIngestor()
		result := ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\nJohn,Dev,Engineering,Active")

		require.Equal(t, []string{"Row 2: Invalid status 'Active'. Must be 'active' or 'on_vacation'"}, result.Errors)
	})

	t.Run("status error takes precedence over empty fields", func(t *testing.T) {
		ingestor, _ := newIngestor()
		result := ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\n,Dev,Engineering,retired")

		require.Equal(t, []string{"Row 2: Invalid status 'retired'. Must be 'active' or 'on_vacation'"}, result.Errors)
	})
}

func TestIngest_Staff_EmptyFields(t *testing.T) {
	t.Parallel()

	t.Run("single empty field", func(t *testing.T) {
		ingestor, _ := newIngestor()
		result := ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\nJohn,,Engineering,active")

		require.Equal(t, []string{"Row 2: position must not be empty"}, result.Errors)
	})

	t.Run("all text fields empty aggregate in column order", func(t *testing.T) {
		ingestor, _ := newIngestor()
		result := ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\n , , ,active")

		require.Equal(t, []string{"Row 2: name must not be empty, position must not be empty, department must not be empty"}, result.Errors)
	})
}

func TestIngest_Staff_SameNameAndDepartmentInOneFile(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "name,position,department,status\n" +
		"John Smith,Line Operator,Assembly,active\n" +
		"John Smith,Shift Lead,Assembly,on_vacation"

	result := ingestor.Ingest(context.Background(), KindStaff, payload)

	// Latest state wins: the second row updates the first row's insert.
	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, result)
	require.Len(t, store.staff, 1)
	require.Equal(t, StaffRecord{ID: 1, Name: "John Smith", Position: "Shift Lead", Department: "Assembly", Status: "on_vacation"}, store.staff[0])
}

func TestIngest_Staff_SameNameDifferentDepartments(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "name,position,department,status\n" +
		"John Smith,Line Operator,Assembly,active\n" +
		"John Smith,Inspector,Quality Control,active"

	result := ingestor.Ingest(context.Background(), KindStaff, payload)

	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, result)
	require.Len(t, store.staff, 2)
}

func TestIngest_Staff_UpdateKeepsSurrogateID(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	seed := ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\nJohn,Dev,Engineering,active")
	require.True(t, seed.Success)
	require.Equal(t, uint(1), store.staff[0].ID)

	result := ingestor.Ingest(context.Background(), KindStaff, "name,position,department,status\nJohn,Senior Dev,Engineering,on_vacation")

	require.True(t, result.Success)
	require.Len(t, store.staff, 1)
	require.Equal(t, StaffRecord{ID: 1, Name: "John", Position: "Senior Dev", Department: "Engineering", Status: "on_vacation"}, store.staff[0])
}

func TestIngest_Staff_StoreErrors(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	store.insertStaffErr = errors.New("permission denied for table staff_members")

	payload := "name,position,department,status\n" +
		"John,Dev,Engineering,active\n" +
		"Maria,QA,Quality,active"
	result := ingestor.Ingest(context.Background(), KindStaff, payload)

	require.False(t, result.Success)
	require.Zero(t, result.RecordsProcessed)
	require.Equal(t, []string{
		"Row 2: Database error - permission denied for table staff_members",
		"Row 3: Database error - permission denied for table staff_members",
	}, result.Errors)
}

func TestIngest_LineEndingsAndBlankLines(t *testing.T) {
	t.Parallel()

	ingestor, store := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\r\n" +
		"2024-01-01,95.5,120,150\r\n" +
		"\r\n" +
		"2024-01-08,92.3,118,160\n\n"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	require.Equal(t, Result{Success: true, RecordsProcessed: 2, Errors: []string{}}, result)
	require.Len(t, store.kpi, 2)
}

func TestIngest_PartialSuccessReportsFalse(t *testing.T) {
	t.Parallel()

	ingestor, _ := newIngestor()
	payload := "week_date,efficiency,production_rate,defects_ppm\n" +
		"2024-01-01,95,120,150\n" +
		"2024-01-08,oops,120,150\n" +
		"2024-01-15,91,115,170"

	result := ingestor.Ingest(context.Background(), KindKPI, payload)

	// Success reflects the error list, not the processed count.
	require.False(t, result.Success)
	require.Equal(t, 2, result.RecordsProcessed)
	require.Len(t, result.Errors, 1)
}
