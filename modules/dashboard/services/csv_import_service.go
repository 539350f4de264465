package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/kpi"
	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/staff"
	"github.com/plantboard/plantboard/pkg/constants"
	"github.com/plantboard/plantboard/pkg/csvimport"
	"github.com/plantboard/plantboard/pkg/eventbus"
)

// mapNotFound translates a domain not-found sentinel into the store contract's
// sentinel so the ingestor falls through to insert.
func mapNotFound(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return csvimport.ErrNotFound
	}
	return err
}

// useLogger prefers the request-scoped logger and falls back to the process
// logger for CLI callers that run without the logging middleware.
func useLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// ImportCompletedEvent is published after every import run, successful or not.
type ImportCompletedEvent struct {
	Kind   csvimport.Kind
	Result csvimport.Result
}

type CSVImportService struct {
	ingestor  *csvimport.Ingestor
	publisher eventbus.EventBus
}

func NewCSVImportService(kpiRepo kpi.Repository, staffRepo staff.Repository, publisher eventbus.EventBus) *CSVImportService {
	return &CSVImportService{
		ingestor: csvimport.New(&repositoryStore{
			kpi:   kpiRepo,
			staff: staffRepo,
		}),
		publisher: publisher,
	}
}

// Import runs outside any shared transaction. Rows reconcile one at a time
// with auto-commit semantics, so a failed row never rolls back earlier rows
// and later rows observe earlier writes.
func (s *CSVImportService) Import(ctx context.Context, kind csvimport.Kind, data string) csvimport.Result {
	started := time.Now()
	result := s.ingestor.Ingest(ctx, kind, data)
	elapsed := time.Since(started)

	recordImportMetrics(kind, result, elapsed)
	s.publisher.Publish(&ImportCompletedEvent{Kind: kind, Result: result})

	useLogger(ctx).WithFields(logrus.Fields{
		"kind":              string(kind),
		"records_processed": result.RecordsProcessed,
		"row_errors":        len(result.Errors),
		"duration":          elapsed.String(),
	}).Info("csv import completed")

	return result
}

// repositoryStore adapts the dashboard repositories to the ingestor's store
// contract. Week dates cross the boundary as ISO strings because that is the
// natural key format of the CSV payload.
type repositoryStore struct {
	kpi   kpi.Repository
	staff staff.Repository
}

func (s *repositoryStore) FindKPIByWeekDate(ctx context.Context, weekDate string) (csvimport.KPIRecord, error) {
	day, err := time.Parse(time.DateOnly, weekDate)
	if err != nil {
		return csvimport.KPIRecord{}, err
	}
	sample, err := s.kpi.GetByWeekDate(ctx, day)
	if err != nil {
		return csvimport.KPIRecord{}, mapNotFound(err, kpi.ErrNotFound)
	}
	return toKPIRecord(sample), nil
}

func (s *repositoryStore) InsertKPI(ctx context.Context, fields csvimport.KPIFields) (csvimport.KPIRecord, error) {
	day, err := time.Parse(time.DateOnly, fields.WeekDate)
	if err != nil {
		return csvimport.KPIRecord{}, err
	}
	sample, err := s.kpi.Create(ctx, kpi.New(day, fields.Efficiency, fields.ProductionRate, fields.DefectsPPM))
	if err != nil {
		return csvimport.KPIRecord{}, err
	}
	return toKPIRecord(sample), nil
}

func (s *repositoryStore) UpdateKPI(ctx context.Context, weekDate string, update csvimport.KPIUpdate) (csvimport.KPIRecord, error) {
	day, err := time.Parse(time.DateOnly, weekDate)
	if err != nil {
		return csvimport.KPIRecord{}, err
	}
	sample, err := s.kpi.UpdateByWeekDate(ctx, day, kpi.UpdateValues{
		Efficiency:     update.Efficiency,
		ProductionRate: update.ProductionRate,
		DefectsPPM:     update.DefectsPPM,
	})
	if err != nil {
		return csvimport.KPIRecord{}, mapNotFound(err, kpi.ErrNotFound)
	}
	return toKPIRecord(sample), nil
}

func (s *repositoryStore) FindStaffByNameAndDepartment(ctx context.Context, name, department string) (csvimport.StaffRecord, error) {
	member, err := s.staff.GetByNameAndDepartment(ctx, name, department)
	if err != nil {
		return csvimport.StaffRecord{}, mapNotFound(err, staff.ErrNotFound)
	}
	return toStaffRecord(member), nil
}

func (s *repositoryStore) InsertStaff(ctx context.Context, fields csvimport.StaffFields) (csvimport.StaffRecord, error) {
	member, err := s.staff.Create(ctx, staff.New(fields.Name, fields.Position, fields.Department, staff.Status(fields.Status)))
	if err != nil {
		return csvimport.StaffRecord{}, err
	}
	return toStaffRecord(member), nil
}

func (s *repositoryStore) UpdateStaff(ctx context.Context, id uint, update csvimport.StaffUpdate) (csvimport.StaffRecord, error) {
	values := staff.UpdateValues{Position: update.Position}
	if update.Status != nil {
		status := staff.Status(*update.Status)
		values.Status = &status
	}
	member, err := s.staff.Update(ctx, id, values)
	if err != nil {
		return csvimport.StaffRecord{}, mapNotFound(err, staff.ErrNotFound)
	}
	return toStaffRecord(member), nil
}

func toKPIRecord(sample kpi.Sample) csvimport.KPIRecord {
	return csvimport.KPIRecord{
		ID:             sample.ID(),
		WeekDate:       sample.WeekDateString(),
		Efficiency:     sample.Efficiency(),
		ProductionRate: sample.ProductionRate(),
		DefectsPPM:     sample.DefectsPPM(),
	}
}

func toStaffRecord(member staff.Member) csvimport.StaffRecord {
	return csvimport.StaffRecord{
		ID:         member.ID(),
		Name:       member.Name(),
		Position:   member.Position(),
		Department: member.Department(),
		Status:     string(member.Status()),
	}
}
