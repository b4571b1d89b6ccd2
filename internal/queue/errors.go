package queue

import (
	"errors"
	"fmt"
)

// ErrorClassifier allows errors to declare their classification so transports
// can map them to a response without knowing every concrete type.
type ErrorClassifier interface {
	// ErrorKind returns a string classification of the error.
	// Known kinds: "validation", "configuration", "not_found", "conflict".
	ErrorKind() string
}

// ErrorKind returns the classification of err, or "internal" when err does
// not declare one.
func ErrorKind(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	if errors.Is(err, ErrNotFound) {
		return "not_found"
	}
	return "internal"
}

var (
	// ErrNotFound is returned when a document set does not exist.
	ErrNotFound = errors.New("document set not found")
	// ErrStaleSet is returned when a set changed after the copy being written was read.
	ErrStaleSet = errors.New("document set changed concurrently")
	// ErrInvalidQuery marks a malformed filter, search, sort, or page parameter.
	ErrInvalidQuery = errors.New("invalid queue query")
)

// FilterError reports a malformed query parameter. The query is not executed.
type FilterError struct {
	Param string
	Value string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Param, e.Value)
}

func (e *FilterError) Unwrap() error { return ErrInvalidQuery }

// ErrorKind implements ErrorClassifier.
func (e *FilterError) ErrorKind() string { return "validation" }

// StaleSetError reports a write based on an outdated copy of a set.
type StaleSetError struct {
	ID      string
	Version int
}

func (e *StaleSetError) Error() string {
	return fmt.Sprintf("document set %s changed since version %d was read", e.ID, e.Version)
}

func (e *StaleSetError) Unwrap() error { return ErrStaleSet }

// ErrorKind implements ErrorClassifier.
func (e *StaleSetError) ErrorKind() string { return "conflict" }
