// Package validator wraps go-playground/validator behind a small API that
// reports failures as plain field/message pairs.
package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator validates structs and single values against `validate` tags.
type Validator struct {
	cli *validator.Validate
}

// New returns a ready-to-use Validator.
func New() *Validator {
	return &Validator{
		cli: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// A ValidationError describes a single failed field.
type ValidationError struct {
	Field   string
	Message string
}

// ValidateStruct checks every tagged field of s and returns one entry per
// failure, or nil when s is valid.
func (v *Validator) ValidateStruct(s any) []ValidationError {
	if err := v.cli.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Validate checks a single value against tag.
func (v *Validator) Validate(value any, tag string) []ValidationError {
	if err := v.cli.Var(value, tag); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) []ValidationError {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, ValidationError{
			Field:   fe.StructField(),
			Message: fe.Error(),
		})
	}
	return out
}
