package affinity

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every validation failure of the calculator.
var ErrInvalidInput = errors.New("invalid affinity input")

// ValidationError reports the input field that failed validation.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil || e.Value == "" {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
