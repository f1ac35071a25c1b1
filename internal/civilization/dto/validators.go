package dto

import (
	"strings"
	"unicode/utf8"

	"go-pantheon/internal/civilization/models"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers the civilization_name tag, which counts
// runes of the trimmed name
func RegisterCustomValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("civilization_name", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
		return n >= models.MinNameLength && n <= models.MaxNameLength
	})
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	if err := RegisterCustomValidators(validate); err != nil {
		panic(err)
	}
	return validate
}
