package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

// NewValidator returns a validator with the dojo specific tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerValidations(v)
	return v
}

func registerValidations(v *validator.Validate) {
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		return raw == "" || models.AttendanceStatus(raw).Valid()
	})
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	registerValidations(v)
	return v
}
