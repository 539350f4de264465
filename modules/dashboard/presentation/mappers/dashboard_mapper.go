package mappers

import (
	"time"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/kpi"
	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/staff"
	"github.com/plantboard/plantboard/modules/dashboard/presentation/viewmodels"
)

func KPIToViewModel(s kpi.Sample) *viewmodels.KPISample {
	return &viewmodels.KPISample{
		ID:             s.ID(),
		WeekDate:       s.WeekDateString(),
		Efficiency:     s.Efficiency(),
		ProductionRate: s.ProductionRate(),
		DefectsPPM:     s.DefectsPPM(),
		CreatedAt:      s.CreatedAt(),
		UpdatedAt:      s.UpdatedAt(),
	}
}

func KPIListToViewModels(samples []kpi.Sample) []*viewmodels.KPISample {
	out := make([]*viewmodels.KPISample, 0, len(samples))
	for _, s := range samples {
		out = append(out, KPIToViewModel(s))
	}
	return out
}

func SummaryToViewModel(s kpi.Summary) *viewmodels.KPISummary {
	vm := &viewmodels.KPISummary{
		Samples:           s.Samples,
		AvgEfficiency:     s.AvgEfficiency,
		AvgProductionRate: s.AvgProductionRate,
		AvgDefectsPPM:     s.AvgDefectsPPM,
	}
	if !s.LatestWeek.IsZero() {
		vm.LatestWeek = s.LatestWeek.Format(time.DateOnly)
	}
	return vm
}

func StaffToViewModel(m staff.Member) *viewmodels.StaffMember {
	return &viewmodels.StaffMember{
		ID:         m.ID(),
		Name:       m.Name(),
		Position:   m.Position(),
		Department: m.Department(),
		Status:     string(m.Status()),
		CreatedAt:  m.CreatedAt(),
		UpdatedAt:  m.UpdatedAt(),
	}
}

func StaffListToViewModels(members []staff.Member) []*viewmodels.StaffMember {
	out := make([]*viewmodels.StaffMember, 0, len(members))
	for _, m := range members {
		out = append(out, StaffToViewModel(m))
	}
	return out
}
