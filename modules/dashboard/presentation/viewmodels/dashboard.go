package viewmodels

import "time"

type KPISample struct {
	ID             uint      `json:"id"`
	WeekDate       string    `json:"week_date"`
	Efficiency     float64   `json:"efficiency"`
	ProductionRate float64   `json:"production_rate"`
	DefectsPPM     float64   `json:"defects_ppm"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type KPISummary struct {
	Samples           int64   `json:"samples"`
	AvgEfficiency     float64 `json:"avg_efficiency"`
	AvgProductionRate float64 `json:"avg_production_rate"`
	AvgDefectsPPM     float64 `json:"avg_defects_ppm"`
	LatestWeek        string  `json:"latest_week,omitempty"`
}

type StaffMember struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Position   string    `json:"position"`
	Department string    `json:"department"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
