// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var trialIDPattern = regexp.MustCompile(`^NCT\d{8}$`)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator with the shared custom tags registered:
//
//	trialid    - registry identifier of the form NCT12345678
//	browsertab - one of overview, eligibility, details
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("trialid", func(fl validator.FieldLevel) bool {
		return trialIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("browsertab", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "overview", "eligibility", "details":
			return true
		}
		return false
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// IsTrialID reports whether id has the registry identifier shape.
func IsTrialID(id string) bool {
	return trialIDPattern.MatchString(id)
}
