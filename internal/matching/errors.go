package matching

import (
	"errors"
	"fmt"

	"docmatch/internal/queue"
)

// ErrMalformedField marks a numeric field that cannot be compared.
var ErrMalformedField = errors.New("malformed field")

// ComparisonError names the document, line, and field that could not be
// compared. Line is 1-based; zero refers to the document total.
type ComparisonError struct {
	Kind       queue.DocumentKind
	DocumentID string
	Line       int
	Field      Field
	Value      float64
}

func (e *ComparisonError) Error() string {
	where := e.Kind.Label()
	if e.DocumentID != "" {
		where += " " + e.DocumentID
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s has invalid value %v", where, e.Line, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s has invalid value %v", where, e.Field, e.Value)
}

func (e *ComparisonError) Unwrap() error { return ErrMalformedField }

// ErrorKind classifies the error for status mapping and API responses.
func (e *ComparisonError) ErrorKind() string { return "comparison" }
