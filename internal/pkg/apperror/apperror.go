// Package apperror defines the request-level error taxonomy shared by the
// services and the HTTP presentation layer.
package apperror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindInvalidVerificationLink
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindInvalidVerificationLink:
		return "invalid_verification_link"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified failure. Fields carries per-field validation messages.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	case KindInvalidCredentials, KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindForbidden, KindInvalidVerificationLink:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func Validation(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Fields:  map[string][]string{field: {message}},
	}
}

func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
}

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "Unauthenticated."}
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "This action is unauthorized."
	}
	return &Error{Kind: KindForbidden, Message: message}
}

func Unverified() *Error {
	return Forbidden("Your email address is not verified.")
}

func InvalidVerificationLink() *Error {
	return &Error{Kind: KindInvalidVerificationLink, Message: "Invalid or expired verification link."}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found."}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As extracts an *Error from err, wrapping anything unclassified as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Server Error", err)
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	return As(err).Kind
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromValidator converts validator failures into a 422 error with one
// human-readable message per offending field.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string][]string, len(verrs))
	first := ""
	for _, fe := range verrs {
		field := jsonFieldName(fe)
		msg := fieldMessage(field, fe)
		fields[field] = append(fields[field], msg)
		if first == "" {
			first = msg
		}
	}
	return &Error{Kind: KindValidation, Message: first, Fields: fields}
}

func jsonFieldName(fe validator.FieldError) string {
	// confirmation mismatches are reported against the confirmed field
	if fe.Tag() == "eqfield" {
		return snakeCase(fe.Param())
	}
	return snakeCase(fe.Field())
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fieldMessage(field string, fe validator.FieldError) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
