package submission

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel kind for rejected submissions.
var ErrValidation = errors.New("invalid submission")

// ValidationError describes why a single field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

// Is reports ErrValidation so callers can match on the kind.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
