package staff

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/plantboard/plantboard/pkg/constants"
	"github.com/plantboard/plantboard/pkg/serrors"
)

// UpdateDTO is a partial update. Absent fields stay untouched.
type UpdateDTO struct {
	Position *string `json:"position"`
	Status   *string `json:"status" validate:"omitempty,oneof=active on_vacation"`
}

func (d *UpdateDTO) IsEmpty() bool {
	return d.Position == nil && d.Status == nil
}

func (d *UpdateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	validationErrors := make(serrors.ValidationErrors)

	if errs := constants.Validate.Struct(d); errs != nil {
		validatorErrs := errs.(validator.ValidationErrors)
		for field, err := range serrors.ProcessValidatorErrors(validatorErrs, fieldLabel) {
			validationErrors[field] = err
		}
	}

	// omitempty skips a pointer to the empty string, so blank positions
	// are rejected here.
	if d.Position != nil && strings.TrimSpace(*d.Position) == "" {
		validationErrors["Position"] = serrors.NewValidationError("Position", "position must not be empty")
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.MessageMap(validationErrors), false
}

func (d *UpdateDTO) ToValues() UpdateValues {
	values := UpdateValues{}
	if d.Position != nil {
		trimmed := strings.TrimSpace(*d.Position)
		values.Position = &trimmed
	}
	if d.Status != nil {
		status := Status(*d.Status)
		values.Status = &status
	}
	return values
}
