package api

import (
	"errors"
	"fmt"
)

// ErrDuplicateSet is returned when an import names a set that already exists.
var ErrDuplicateSet = errors.New("document set already exists")

// DuplicateSetError names the set an import collided with.
type DuplicateSetError struct {
	ID string
}

func (e *DuplicateSetError) Error() string {
	return fmt.Sprintf("document set %s already exists", e.ID)
}

func (e *DuplicateSetError) Unwrap() error { return ErrDuplicateSet }

// ErrorKind classifies the error for status mapping and API responses.
func (e *DuplicateSetError) ErrorKind() string { return "conflict" }

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
