package variance

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange marks a threshold or tolerance outside its permitted range.
	ErrOutOfRange = errors.New("variance value out of range")
	// ErrKindMismatch marks a tolerance kind that does not fit its field.
	ErrKindMismatch = errors.New("variance kind mismatch")
)

// ConfigError reports an invalid variance policy.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("variance.%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for status mapping and API responses.
func (e *ConfigError) ErrorKind() string { return "configuration" }
