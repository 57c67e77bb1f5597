package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to Echo's Validator
// interface. Handlers call c.Validate after binding and map failures to
// problem-details responses.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a new RequestValidator
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// fieldErrors converts validator failures into response ValidationErrors.
func fieldErrors(err error) []ValidationError {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return nil
	}
	out := make([]ValidationError, len(invalid))
	for i, fe := range invalid {
		out[i] = ValidationError{
			Field:   fe.Field(),
			Message: "failed on " + fe.Tag() + " validation",
		}
	}
	return out
}
