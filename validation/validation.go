// Package validation wraps go-playground/validator for request DTOs.
// Rules live in `validate:"..."` struct tags next to the JSON tags; Struct and
// Var turn the first violated rule into a VALIDATION_ERROR whose message names
// the offending field by its JSON name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/taskmanager-go/apperror"
)

// Validator is safe for concurrent use; one instance is shared by all services.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s against its struct tags.
func (val *Validator) Struct(s any) error {
	return translate(val.v.Struct(s), "")
}

// Var validates a single value against tag, reporting it under field.
func (val *Validator) Var(field string, value any, tag string) error {
	return translate(val.v.Var(value, tag), field)
}

func translate(err error, field string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.NewValidationError("invalid input", err)
	}
	fe := verrs[0]
	name := field
	if name == "" {
		name = fe.Field()
	}
	return apperror.NewValidationError(message(name, fe), err)
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
