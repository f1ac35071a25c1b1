package dto

import (
	"go-pantheon/internal/diplomacy/models"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers diplomatic_status, which accepts the
// statuses that can be proposed
func RegisterCustomValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("diplomatic_status", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).IsPact()
	})
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	if err := RegisterCustomValidators(validate); err != nil {
		panic(err)
	}
	return validate
}
