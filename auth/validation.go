package auth

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jrsteele09/multipaga/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a request body before it goes on the wire. Failures wrap errors.ErrValidation
// and name the first offending field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return errors.Wrapf(errors.ErrValidation, "%v", err)
	}
	first := validationErrors[0]
	return errors.Wrapf(errors.ErrValidation, "%s", fieldMessage(first))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "email":
		return fmt.Sprintf("field '%s' must be a valid email address", field)
	case "len":
		return fmt.Sprintf("field '%s' must be exactly %s characters long", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("field '%s' must contain only digits", field)
	default:
		return fmt.Sprintf("field '%s' failed on '%s'", field, fe.Tag())
	}
}
