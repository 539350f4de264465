package kpi

import "time"

// Sample is one week of production measurements. The week date is the
// natural key, so at most one sample exists per week.
type Sample struct {
	id             uint
	weekDate       time.Time
	efficiency     float64
	productionRate float64
	defectsPPM     float64
	createdAt      time.Time
	updatedAt      time.Time
}

// New builds an unsaved sample. The week date is normalized to midnight
// UTC so comparisons ignore the time-of-day component.
func New(weekDate time.Time, efficiency, productionRate, defectsPPM float64) Sample {
	return Sample{
		weekDate:       normalizeWeekDate(weekDate),
		efficiency:     efficiency,
		productionRate: productionRate,
		defectsPPM:     defectsPPM,
	}
}

// Hydrate restores a sample from storage without validation.
func Hydrate(
	id uint,
	weekDate time.Time,
	efficiency, productionRate, defectsPPM float64,
	createdAt, updatedAt time.Time,
) Sample {
	return Sample{
		id:             id,
		weekDate:       normalizeWeekDate(weekDate),
		efficiency:     efficiency,
		productionRate: productionRate,
		defectsPPM:     defectsPPM,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func normalizeWeekDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s Sample) ID() uint {
	return s.id
}

func (s Sample) WeekDate() time.Time {
	return s.weekDate
}

// WeekDateString renders the natural key in ISO form (2006-01-02).
func (s Sample) WeekDateString() string {
	return s.weekDate.Format(time.DateOnly)
}

func (s Sample) Efficiency() float64 {
	return s.efficiency
}

func (s Sample) ProductionRate() float64 {
	return s.productionRate
}

func (s Sample) DefectsPPM() float64 {
	return s.defectsPPM
}

func (s Sample) CreatedAt() time.Time {
	return s.createdAt
}

func (s Sample) UpdatedAt() time.Time {
	return s.updatedAt
}

func (s Sample) IsZero() bool {
	return s.id == 0 && s.weekDate.IsZero()
}
