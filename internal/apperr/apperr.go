package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error kinds. Domain errors wrap exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

// Error is a client-reportable failure with a stable machine code.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// ValidationError reports problems field by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a single-field validation error.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// FromValidator converts go-playground validator output into a ValidationError.
// Field names come from the json tag when the validator was built with Validator().
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "mobile":
		return "is not a valid mobile number"
	case "username":
		return "may only contain letters, numbers and underscores"
	case "hasdigit":
		return "must contain at least one number"
	case "otp":
		return "must be exactly 6 digits"
	default:
		return "is invalid"
	}
}

// Status maps an error to its HTTP status and public code.
// Anything that does not wrap a known kind is a server error.
func Status(err error) (int, string) {
	code := ""
	var ae *Error
	if errors.As(err, &ae) {
		code = ae.Code
	}

	switch {
	case errors.Is(err, ErrValidation):
		if code == "" {
			code = "validation_error"
		}
		return http.StatusBadRequest, code
	case errors.Is(err, ErrNotFound):
		if code == "" {
			code = "not_found"
		}
		return http.StatusNotFound, code
	case errors.Is(err, ErrUnauthorized):
		if code == "" {
			code = "unauthorized"
		}
		return http.StatusUnauthorized, code
	case errors.Is(err, ErrForbidden):
		if code == "" {
			code = "forbidden"
		}
		return http.StatusForbidden, code
	case errors.Is(err, ErrConflict):
		if code == "" {
			code = "conflict"
		}
		return http.StatusConflict, code
	case errors.Is(err, ErrUnavailable):
		if code == "" {
			code = "unavailable"
		}
		return http.StatusServiceUnavailable, code
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
