package kpi

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/plantboard/plantboard/pkg/constants"
	"github.com/plantboard/plantboard/pkg/serrors"
)

// UpdateDTO is a partial update. Absent fields stay untouched.
type UpdateDTO struct {
	Efficiency     *float64 `json:"efficiency" validate:"omitempty,gte=0,lte=100"`
	ProductionRate *float64 `json:"production_rate" validate:"omitempty,gte=0"`
	DefectsPPM     *float64 `json:"defects_ppm" validate:"omitempty,gte=0"`
}

func (d *UpdateDTO) IsEmpty() bool {
	return d.Efficiency == nil && d.ProductionRate == nil && d.DefectsPPM == nil
}

func (d *UpdateDTO) Ok(ctx context.Context) (map[string]string, bool) {
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

func (d *UpdateDTO) ToValues() UpdateValues {
	return UpdateValues{
		Efficiency:     d.Efficiency,
		ProductionRate: d.ProductionRate,
		DefectsPPM:     d.DefectsPPM,
	}
}
