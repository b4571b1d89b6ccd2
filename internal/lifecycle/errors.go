package lifecycle

import (
	"errors"
	"fmt"

	"docmatch/internal/queue"
)

var (
	// ErrIllegalTransition marks a reviewer action the state machine forbids.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrUnknownAction marks an action name the lifecycle does not handle.
	ErrUnknownAction = errors.New("unknown action")
)

// IllegalTransitionError reports an action attempted from a status that does
// not allow it.
type IllegalTransitionError struct {
	Action queue.Action
	From   queue.Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a set that is %s", e.Action, e.From.Label())
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// ErrorKind classifies the error for status mapping and API responses.
func (e *IllegalTransitionError) ErrorKind() string { return "conflict" }
