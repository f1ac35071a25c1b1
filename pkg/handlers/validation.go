package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationMessages converts validator errors into readable messages
func ValidationMessages(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatValidationError(fieldError))
	}
	return messages
}

func formatValidationError(err validator.FieldError) string {
	field := err.Namespace()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + param
	case "max":
		return field + " must be at most " + param
	case "gt":
		return field + " must be greater than " + param
	case "oneof":
		return field + " must be one of: " + param
	case "deity_domain":
		return field + " must be a deity domain"
	case "diplomatic_status":
		return field + " must be a diplomatic status"
	case "trigger_type":
		return field + " must be a milestone trigger type"
	case "benefit_type":
		return field + " must be a milestone benefit type"
	default:
		return field + " is invalid"
	}
}
