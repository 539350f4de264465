package staff

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/plantboard/plantboard/pkg/constants"
	"github.com/plantboard/plantboard/pkg/serrors"
)

type CreateDTO struct {
	Name       string `json:"name" validate:"required"`
	Position   string `json:"position" validate:"required"`
	Department string `json:"department" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=active on_vacation"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Position = strings.TrimSpace(d.Position)
	d.Department = strings.TrimSpace(d.Department)
	d.Status = strings.TrimSpace(d.Status)
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

func (d *CreateDTO) ToEntity() Member {
	return New(d.Name, d.Position, d.Department, Status(d.Status))
}

func fieldLabel(field string) string {
	switch field {
	case "Name":
		return "name"
	case "Position":
		return "position"
	case "Department":
		return "department"
	case "Status":
		return "status"
	default:
		return ""
	}
}
