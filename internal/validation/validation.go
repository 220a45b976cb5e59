// Package validation contains the logic for validating request data.
//
// It uses the `validator` library to enforce rules defined in struct tags
// and converts validation errors into a format the client can understand.
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/testtable-service/internal/errs"
)

// Validatable is implemented by request types that know how to validate
// themselves, usually by calling Struct.
type Validatable interface {
	Validate() error
}

// Decoder is implemented by request types that read the request themselves
// instead of relying on echo's reflection based Bind.
type Decoder interface {
	Decode(c echo.Context) error
}

// CustomValidationError represents a single validation issue for a specific
// field that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that
// satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate populates payload from the request and validates it.
//
// Decoder implementations are trusted to return client safe errors. The
// echo Bind fallback never exposes the binder's own message.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if d, ok := payload.(Decoder); ok {
		if err := d.Decode(c); err != nil {
			return err
		}
	} else if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError("Invalid request", false, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors)
	}

	return nil
}

// NewFieldDecodeError is the 400 for a value that could not be decoded.
func NewFieldDecodeError(field, message string) *errs.HTTPError {
	return errs.NewBadRequestError(
		fmt.Sprintf("Invalid value for field '%s': %s", field, message),
		true,
		nil,
		[]errs.FieldError{{Field: field, Error: message}},
	)
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var customValidationErrors CustomValidationErrors
	if errors.As(err, &customValidationErrors) {
		for _, err := range customValidationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: err.Field,
				Error: err.Message,
			})
		}
		return "Validation failed", fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Not a validation failure at all; keep the detail out of the response.
		return "Validation failed", []errs.FieldError{}
	}

	for _, err := range validationErrors {
		field := err.Field()
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "notblank":
			msg = "must not be blank"

		case "min":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "uuid":
			msg = "must be a valid UUID"

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, err.Tag(), err.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, err.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}
