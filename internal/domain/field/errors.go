package field

import (
	"fmt"

	"github.com/hata-go/hata/internal/domain/shared"
)

// ValidationError reports a value rejected by a validator.
type ValidationError struct {
	Field  string
	Reason string
	Kind   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns the base error kind so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	if e.Kind == nil {
		return shared.ErrValidation
	}
	return e.Kind
}

func invalid(field string, kind error, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Kind: kind}
}
