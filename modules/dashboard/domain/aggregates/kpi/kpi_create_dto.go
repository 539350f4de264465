package kpi

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/plantboard/plantboard/pkg/constants"
	"github.com/plantboard/plantboard/pkg/serrors"
)

type CreateDTO struct {
	WeekDate       string  `json:"week_date" validate:"required,datetime=2006-01-02"`
	Efficiency     float64 `json:"efficiency" validate:"gte=0,lte=100"`
	ProductionRate float64 `json:"production_rate" validate:"gte=0"`
	DefectsPPM     float64 `json:"defects_ppm" validate:"gte=0"`
}

func (d *CreateDTO) Normalize() {
	d.WeekDate = strings.TrimSpace(d.WeekDate)
}

func (d *CreateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return map[string]string{}, true
	}

	validationErrors := make(serrors.ValidationErrors)
	validatorErrs := errs.(validator.ValidationErrors)
	for field, err := range serrors.ProcessValidatorErrors(validatorErrs, fieldLabel) {
		validationErrors[field] = err
	}

	return serrors.MessageMap(validationErrors), false
}

func (d *CreateDTO) ToEntity() (Sample, error) {
	weekDate, err := time.Parse(time.DateOnly, d.WeekDate)
	if err != nil {
		return Sample{}, err
	}
	return New(weekDate, d.Efficiency, d.ProductionRate, d.DefectsPPM), nil
}

func fieldLabel(field string) string {
	switch field {
	case "WeekDate":
		return "week_date"
	case "Efficiency":
		return "efficiency"
	case "ProductionRate":
		return "production_rate"
	case "DefectsPPM":
		return "defects_ppm"
	default:
		return ""
	}
}
