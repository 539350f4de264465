package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BaseError is the structured error carried across service boundaries. Code is
// a stable machine-readable identifier, Message the human-readable text.
type BaseError struct {
	Code         string
	Message      string
	Details      string
	TemplateData map[string]string
}

func (e *BaseError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func NewError(code, message, details string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// WithTemplateData attaches structured context to the error and returns it for
// chaining.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

func NewValidationError(field, message string) *BaseError {
	return NewError("VALIDATION_ERROR", message, "").WithTemplateData(map[string]string{
		"field": field,
	})
}

// ValidationErrors maps struct field names to the error describing why the
// field failed validation.
type ValidationErrors map[string]error

// ProcessValidatorErrors converts validator.ValidationErrors into
// ValidationErrors keyed by struct field name. getFieldLabel maps a struct
// field name to the label used in messages; returning "" keeps the field name.
func ProcessValidatorErrors(
	validatorErrs validator.ValidationErrors,
	getFieldLabel func(field string) string,
) ValidationErrors {
	errs := make(ValidationErrors, len(validatorErrs))
	for _, fe := range validatorErrs {
		field := fe.Field()
		label := field
		if getFieldLabel != nil {
			if custom := getFieldLabel(field); custom != "" {
				label = custom
			}
		}
		errs[field] = NewValidationError(field, messageForTag(label, fe))
	}
	return errs
}

// MessageMap flattens ValidationErrors into the field-to-message map returned
// to API clients.
func MessageMap(ve ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for field, err := range ve {
		out[field] = err.Error()
	}
	return out
}

func messageForTag(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a valid date", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
