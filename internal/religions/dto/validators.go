package dto

import (
	"go-pantheon/internal/religions/models"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers the deity_domain tag
func RegisterCustomValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("deity_domain", func(fl validator.FieldLevel) bool {
		return models.DeityDomain(fl.Field().String()).Valid()
	})
}

// NewValidator returns a validator with the religion tags registered
func NewValidator() *validator.Validate {
	validate := validator.New()
	if err := RegisterCustomValidators(validate); err != nil {
		panic(err)
	}
	return validate
}
