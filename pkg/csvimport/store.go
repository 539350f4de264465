package csvimport

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store lookups when no record matches the natural
// key. Implementations must return it (possibly wrapped) so the ingestor can
// distinguish "insert" from a failed lookup.
var ErrNotFound = errors.New("record not found")

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// KPIFields is the full field payload for inserting a weekly KPI sample.
// Identity and timestamps are owned by the store.
type KPIFields struct {
	WeekDate       string
	Efficiency     float64
	ProductionRate float64
	DefectsPPM     float64
}

// KPIUpdate is a partial update keyed by week date. Nil fields are left
// untouched; the week date itself is never changed by an update.
type KPIUpdate struct {
	Efficiency     *float64
	ProductionRate *float64
	DefectsPPM     *float64
}

type KPIRecord struct {
	ID             uint
	WeekDate       string
	Efficiency     float64
	ProductionRate float64
	DefectsPPM     float64
}

// StaffFields is the full field payload for inserting a staff member.
type StaffFields struct {
	Name       string
	Position   string
	Department string
	Status     string
}

// StaffUpdate is a partial update keyed by surrogate ID. Name and department
// form the natural key and are never changed by an update.
type StaffUpdate struct {
	Position *string
	Status   *string
}

type StaffRecord struct {
	ID         uint
	Name       string
	Position   string
	Department string
	Status     string
}

// Store is the persistence boundary the ingestor reconciles rows against.
// Lookups signal absence with ErrNotFound. Each call is expected to commit
// independently; the ingestor never wraps rows in a shared transaction.
type Store interface {
	FindKPIByWeekDate(ctx context.Context, weekDate string) (KPIRecord, error)
	InsertKPI(ctx context.Context, fields KPIFields) (KPIRecord, error)
	UpdateKPI(ctx context.Context, weekDate string, update KPIUpdate) (KPIRecord, error)

	FindStaffByNameAndDepartment(ctx context.Context, name, department string) (StaffRecord, error)
	InsertStaff(ctx context.Context, fields StaffFields) (StaffRecord, error)
	UpdateStaff(ctx context.Context, id uint, update StaffUpdate) (StaffRecord, error)
}
