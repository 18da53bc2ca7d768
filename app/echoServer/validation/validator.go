// Package validation adapts go-playground/validator to echo's Validator
// interface so request DTOs across the library API can declare their rules
// as struct tags.
package validation

import (
	"github.com/go-playground/validator/v10"
)

// Validator wraps a single validator.Validate instance shared by all
// controllers.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}
