package dto

import (
	"go-pantheon/internal/milestones/models"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers the milestone catalog validators
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("trigger_type", validateTriggerType); err != nil {
		return err
	}
	return v.RegisterValidation("benefit_type", validateBenefitType)
}

func validateTriggerType(fl validator.FieldLevel) bool {
	return models.TriggerType(fl.Field().String()).Valid()
}

func validateBenefitType(fl validator.FieldLevel) bool {
	return models.BenefitType(fl.Field().String()).Valid()
}

// NewValidator returns a validator with the custom tags registered
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterCustomValidators(v); err != nil {
		panic(err)
	}
	return v
}
