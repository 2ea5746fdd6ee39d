package domain

import (
	"errors"
	"strings"
)

// Общие доменные ошибки
var (
	ErrNotFound             = notFoundError("not found")
	ErrValidation           = validationError("invalid data")
	ErrEmptyCart            = stateError("cart is empty, nothing to checkout")
	ErrWrongStep            = stateError("operation not allowed at the current checkout step")
	ErrNoSession            = stateError("checkout is not open")
	ErrConfirmationRequired = stateError("confirmation required")
	ErrUnauthorized         = authError("unauthorized")
	ErrCooldown             = verificationError("verification code recently requested, try again later")
	ErrVerificationFailed   = verificationError("verification failed")
	ErrNotVerified          = verificationError("phone number is not verified")
	ErrVerifyUnavailable    = verificationError("phone verification is not configured")
	ErrUndecodable          = codecError("could not decode")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type stateError string

func (e stateError) Error() string { return string(e) }

type authError string

func (e authError) Error() string { return string(e) }

type verificationError string

func (e verificationError) Error() string { return string(e) }

type codecError string

func (e codecError) Error() string { return string(e) }

// FieldError — причина отказа для конкретного поля ввода.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError собирает все невалидные поля шага; errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// Err returns nil when no field failed, so callers can `return v.Err()`.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return string(ErrValidation) + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InvalidFields extracts per-field reasons from err, if any.
func InvalidFields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
