package kpi

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	ErrNotFound      = errors.New("kpi sample not found")
	ErrWeekDateTaken = errors.New("kpi sample already exists for week date")
)

// FindParams filters and pages sample listings. Zero From/To leave the
// corresponding bound open. Results are ordered by week date, newest
// first unless Ascending is set.
type FindParams struct {
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
	Ascending bool
}

// UpdateValues carries a partial update. Nil fields keep their stored
// value.
type UpdateValues struct {
	Efficiency     *float64
	ProductionRate *float64
	DefectsPPM     *float64
}

// Summary aggregates samples over a week-date range.
type Summary struct {
	Samples           int64
	AvgEfficiency     float64
	AvgProductionRate float64
	AvgDefectsPPM     float64
	LatestWeek        time.Time
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Sample, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetByID(ctx context.Context, id uint) (Sample, error)
	GetByWeekDate(ctx context.Context, weekDate time.Time) (Sample, error)
	Create(ctx context.Context, sample Sample) (Sample, error)
	Update(ctx context.Context, id uint, values UpdateValues) (Sample, error)
	UpdateByWeekDate(ctx context.Context, weekDate time.Time, values UpdateValues) (Sample, error)
	Delete(ctx context.Context, id uint) error
	Summary(ctx context.Context, from, to time.Time) (Summary, error)
}
