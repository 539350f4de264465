// Package testutils provides in-memory repository fakes shared by service and
// controller tests.
package testutils

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/kpi"
	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/staff"
	"github.com/plantboard/plantboard/pkg/composables"
	"github.com/plantboard/plantboard/pkg/eventbus"
)

// StubTx satisfies the transaction context requirement without a database.
// The embedded interface is never called because the fakes keep data in
// memory.
type StubTx struct{ pgx.Tx }

// TxContext returns a context that passes the transaction guard in services.
func TxContext() context.Context {
	return composables.WithTx(context.Background(), StubTx{})
}

// QuietPublisher returns an event bus whose warnings go nowhere.
func QuietPublisher() eventbus.EventBus {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return eventbus.NewEventPublisher(log)
}

type FakeKPIRepository struct {
	Samples []kpi.Sample
	NextID  uint

	FindErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

func NewFakeKPIRepository() *FakeKPIRepository {
	return &FakeKPIRepository{NextID: 1}
}

func (f *FakeKPIRepository) GetPaginated(_ context.Context, params *kpi.FindParams) ([]kpi.Sample, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	if params == nil {
		params = &kpi.FindParams{}
	}
	out := make([]kpi.Sample, 0, len(f.Samples))
	for _, s := range f.Samples {
		if !params.From.IsZero() && s.WeekDate().Before(params.From) {
			continue
		}
		if !params.To.IsZero() && s.WeekDate().After(params.To) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if params.Ascending {
			return out[i].WeekDate().Before(out[j].WeekDate())
		}
		return out[i].WeekDate().After(out[j].WeekDate())
	})
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []kpi.Sample{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(out) {
		out = out[:params.Limit]
	}
	return out, nil
}

func (f *FakeKPIRepository) Count(_ context.Context, params *kpi.FindParams) (int64, error) {
	if f.FindErr != nil {
		return 0, f.FindErr
	}
	if params == nil {
		params = &kpi.FindParams{}
	}
	var count int64
	for _, s := range f.Samples {
		if !params.From.IsZero() && s.WeekDate().Before(params.From) {
			continue
		}
		if !params.To.IsZero() && s.WeekDate().After(params.To) {
			continue
		}
		count++
	}
	return count, nil
}

func (f *FakeKPIRepository) GetByID(_ context.Context, id uint) (kpi.Sample, error) {
	if f.FindErr != nil {
		return kpi.Sample{}, f.FindErr
	}
	for _, s := range f.Samples {
		if s.ID() == id {
			return s, nil
		}
	}
	return kpi.Sample{}, fmt.Errorf("id: %d: %w", id, kpi.ErrNotFound)
}

func (f *FakeKPIRepository) GetByWeekDate(_ context.Context, weekDate time.Time) (kpi.Sample, error) {
	if f.FindErr != nil {
		return kpi.Sample{}, f.FindErr
	}
	for _, s := range f.Samples {
		if s.WeekDate().Equal(weekDate) {
			return s, nil
		}
	}
	return kpi.Sample{}, fmt.Errorf("week_date: %s: %w", weekDate.Format(time.DateOnly), kpi.ErrNotFound)
}

func (f *FakeKPIRepository) Create(_ context.Context, sample kpi.Sample) (kpi.Sample, error) {
	if f.CreateErr != nil {
		return kpi.Sample{}, f.CreateErr
	}
	for _, s := range f.Samples {
		if s.WeekDate().Equal(sample.WeekDate()) {
			return kpi.Sample{}, fmt.Errorf("week_date: %s: %w", sample.WeekDateString(), kpi.ErrWeekDateTaken)
		}
	}
	now := time.Now()
	created := kpi.Hydrate(f.NextID, sample.WeekDate(), sample.Efficiency(), sample.ProductionRate(), sample.DefectsPPM(), now, now)
	f.NextID++
	f.Samples = append(f.Samples, created)
	return created, nil
}

func (f *FakeKPIRepository) Update(_ context.Context, id uint, values kpi.UpdateValues) (kpi.Sample, error) {
	if f.UpdateErr != nil {
		return kpi.Sample{}, f.UpdateErr
	}
	for i, s := range f.Samples {
		if s.ID() == id {
			f.Samples[i] = applyKPIUpdate(s, values)
			return f.Samples[i], nil
		}
	}
	return kpi.Sample{}, fmt.Errorf("id: %d: %w", id, kpi.ErrNotFound)
}

func (f *FakeKPIRepository) UpdateByWeekDate(_ context.Context, weekDate time.Time, values kpi.UpdateValues) (kpi.Sample, error) {
	if f.UpdateErr != nil {
		return kpi.Sample{}, f.UpdateErr
	}
	for i, s := range f.Samples {
		if s.WeekDate().Equal(weekDate) {
			f.Samples[i] = applyKPIUpdate(s, values)
			return f.Samples[i], nil
		}
	}
	return kpi.Sample{}, fmt.Errorf("week_date: %s: %w", weekDate.Format(time.DateOnly), kpi.ErrNotFound)
}

func (f *FakeKPIRepository) Delete(_ context.Context, id uint) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, s := range f.Samples {
		if s.ID() == id {
			f.Samples = append(f.Samples[:i], f.Samples[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("id: %d: %w", id, kpi.ErrNotFound)
}

func (f *FakeKPIRepository) Summary(ctx context.Context, from, to time.Time) (kpi.Summary, error) {
	samples, err := f.GetPaginated(ctx, &kpi.FindParams{From: from, To: to})
	if err != nil {
		return kpi.Summary{}, err
	}
	summary := kpi.Summary{Samples: int64(len(samples))}
	if len(samples) == 0 {
		return summary, nil
	}
	for _, s := range samples {
		summary.AvgEfficiency += s.Efficiency()
		summary.AvgProductionRate += s.ProductionRate()
		summary.AvgDefectsPPM += s.DefectsPPM()
		if s.WeekDate().After(summary.LatestWeek) {
			summary.LatestWeek = s.WeekDate()
		}
	}
	n := float64(len(samples))
	summary.AvgEfficiency /= n
	summary.AvgProductionRate /= n
	summary.AvgDefectsPPM /= n
	return summary, nil
}

func applyKPIUpdate(s kpi.Sample, values kpi.UpdateValues) kpi.Sample {
	efficiency := s.Efficiency()
	productionRate := s.ProductionRate()
	defectsPPM := s.DefectsPPM()
	if values.Efficiency != nil {
		efficiency = *values.Efficiency
	}
	if values.ProductionRate != nil {
		productionRate = *values.ProductionRate
	}
	if values.DefectsPPM != nil {
		defectsPPM = *values.DefectsPPM
	}
	return kpi.Hydrate(s.ID(), s.WeekDate(), efficiency, productionRate, defectsPPM, s.CreatedAt(), time.Now())
}

type FakeStaffRepository struct {
	Members []staff.Member
	NextID  uint

	FindErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

func NewFakeStaffRepository() *FakeStaffRepository {
	return &FakeStaffRepository{NextID: 1}
}

func (f *FakeStaffRepository) GetPaginated(_ context.Context, params *staff.FindParams) ([]staff.Member, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	if params == nil {
		params = &staff.FindParams{}
	}
	out := make([]staff.Member, 0, len(f.Members))
	for _, m := range f.Members {
		if !staffMatches(m, params) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() == out[j].Name() {
			return out[i].Department() < out[j].Department()
		}
		return out[i].Name() < out[j].Name()
	})
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []staff.Member{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(out) {
		out = out[:params.Limit]
	}
	return out, nil
}

func (f *FakeStaffRepository) Count(_ context.Context, params *staff.FindParams) (int64, error) {
	if f.FindErr != nil {
		return 0, f.FindErr
	}
	if params == nil {
		params = &staff.FindParams{}
	}
	var count int64
	for _, m := range f.Members {
		if staffMatches(m, params) {
			count++
		}
	}
	return count, nil
}

func staffMatches(m staff.Member, params *staff.FindParams) bool {
	if params.Department != "" && m.Department() != params.Department {
		return false
	}
	if params.Status != "" && m.Status() != params.Status {
		return false
	}
	if params.Search != "" {
		needle := strings.ToLower(params.Search)
		if !strings.Contains(strings.ToLower(m.Name()), needle) &&
			!strings.Contains(strings.ToLower(m.Position()), needle) {
			return false
		}
	}
	return true
}

func (f *FakeStaffRepository) GetByID(_ context.Context, id uint) (staff.Member, error) {
	if f.FindErr != nil {
		return staff.Member{}, f.FindErr
	}
	for _, m := range f.Members {
		if m.ID() == id {
			return m, nil
		}
	}
	return staff.Member{}, fmt.Errorf("id: %d: %w", id, staff.ErrNotFound)
}

func (f *FakeStaffRepository) GetByNameAndDepartment(_ context.Context, name, department string) (staff.Member, error) {
	if f.FindErr != nil {
		return staff.Member{}, f.FindErr
	}
	for _, m := range f.Members {
		if m.Name() == name && m.Department() == department {
			return m, nil
		}
	}
	return staff.Member{}, fmt.Errorf("name: %s, department: %s: %w", name, department, staff.ErrNotFound)
}

func (f *FakeStaffRepository) Create(_ context.Context, member staff.Member) (staff.Member, error) {
	if f.CreateErr != nil {
		return staff.Member{}, f.CreateErr
	}
	for _, m := range f.Members {
		if m.Name() == member.Name() && m.Department() == member.Department() {
			return staff.Member{}, fmt.Errorf("name: %s, department: %s: %w", member.Name(), member.Department(), staff.ErrAlreadyExists)
		}
	}
	now := time.Now()
	created := staff.Hydrate(f.NextID, member.Name(), member.Position(), member.Department(), member.Status(), now, now)
	f.NextID++
	f.Members = append(f.Members, created)
	return created, nil
}

func (f *FakeStaffRepository) Update(_ context.Context, id uint, values staff.UpdateValues) (staff.Member, error) {
	if f.UpdateErr != nil {
		return staff.Member{}, f.UpdateErr
	}
	for i, m := range f.Members {
		if m.ID() == id {
			position := m.Position()
			status := m.Status()
			if values.Position != nil {
				position = *values.Position
			}
			if values.Status != nil {
				status = *values.Status
			}
			f.Members[i] = staff.Hydrate(m.ID(), m.Name(), position, m.Department(), status, m.CreatedAt(), time.Now())
			return f.Members[i], nil
		}
	}
	return staff.Member{}, fmt.Errorf("id: %d: %w", id, staff.ErrNotFound)
}

func (f *FakeStaffRepository) Delete(_ context.Context, id uint) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, m := range f.Members {
		if m.ID() == id {
			f.Members = append(f.Members[:i], f.Members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("id: %d: %w", id, staff.ErrNotFound)
}

func (f *FakeStaffRepository) Departments(_ context.Context) ([]string, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	seen := map[string]bool{}
	departments := make([]string, 0)
	for _, m := range f.Members {
		if !seen[m.Department()] {
			seen[m.Department()] = true
			departments = append(departments, m.Department())
		}
	}
	sort.Strings(departments)
	return departments, nil
}
