package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"docmatch/internal/queue"
)

// Request describes a reviewer or operator action.
type Request struct {
	Action queue.Action
	Actor  string
	Note   string
	At     time.Time
}

// Apply validates req against the state machine and returns the updated copy
// of set with the matching activity entry. The input set is never modified.
func Apply(set queue.DocumentSet, req Request) (queue.DocumentSet, queue.Activity, error) {
	from := set.Status
	next := set.Clone()

	switch req.Action {
	case queue.ActionApprove:
		if from != queue.StatusReadyForReview {
			return set, queue.Activity{}, illegal(req.Action, from)
		}
		next.Status = queue.StatusVerified
		next.Verification = queue.VerificationManuallyApproved
		if req.Note != "" {
			next.ReviewNote = req.Note
		}
	case queue.ActionReject:
		if from != queue.StatusReadyForReview {
			return set, queue.Activity{}, illegal(req.Action, from)
		}
		next.Status = queue.StatusRejected
		next.Verification = queue.VerificationNone
		next.ReviewNote = req.Note
	case queue.ActionAssign:
		if from == queue.StatusVerified || from == queue.StatusRejected {
			return set, queue.Activity{}, illegal(req.Action, from)
		}
		next.AssignedTo = strings.TrimSpace(req.Actor)
	case queue.ActionRetry:
		if from != queue.StatusProcessingFailed {
			return set, queue.Activity{}, illegal(req.Action, from)
		}
		next.Status = queue.StatusIncomplete
		next.ErrorMessage = ""
	case queue.ActionReopen:
		if from != queue.StatusRejected {
			return set, queue.Activity{}, illegal(req.Action, from)
		}
		next.Status = queue.StatusIncomplete
		next.ReviewNote = ""
	case queue.ActionFail:
		next = markFailed(next, req.Note)
	default:
		return set, queue.Activity{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	next.LastActivityAt = req.At
	activity := queue.Activity{
		SetID:  set.ID,
		Action: req.Action,
		From:   from,
		To:     next.Status,
		Actor:  req.Actor,
		Note:   req.Note,
		At:     req.At,
	}
	return next, activity, nil
}

func illegal(action queue.Action, from queue.Status) error {
	return &IllegalTransitionError{Action: action, From: from}
}

// Approve manually verifies a set awaiting review.
func Approve(set queue.DocumentSet, reviewer string, at time.Time) (queue.DocumentSet, queue.Activity, error) {
	return Apply(set, Request{Action: queue.ActionApprove, Actor: reviewer, At: at})
}

// Reject rejects a set awaiting review, recording the reason.
func Reject(set queue.DocumentSet, reviewer, reason string, at time.Time) (queue.DocumentSet, queue.Activity, error) {
	return Apply(set, Request{Action: queue.ActionReject, Actor: reviewer, Note: reason, At: at})
}

// Assign hands a set to a reviewer. An empty reviewer clears the assignment.
func Assign(set queue.DocumentSet, reviewer string, at time.Time) (queue.DocumentSet, queue.Activity, error) {
	return Apply(set, Request{Action: queue.ActionAssign, Actor: reviewer, At: at})
}

// Retry returns a failed set to incomplete so it is evaluated again.
func Retry(set queue.DocumentSet, at time.Time) (queue.DocumentSet, queue.Activity, error) {
	return Apply(set, Request{Action: queue.ActionRetry, At: at})
}

// Reopen returns a rejected set to incomplete.
func Reopen(set queue.DocumentSet, at time.Time) (queue.DocumentSet, queue.Activity, error) {
	return Apply(set, Request{Action: queue.ActionReopen, At: at})
}

// Fail marks a set as failed, for example when ingestion of one of its
// documents breaks.
func Fail(set queue.DocumentSet, reason string, at time.Time) (queue.DocumentSet, queue.Activity, error) {
	return Apply(set, Request{Action: queue.ActionFail, Note: reason, At: at})
}

// ParseAction converts an action name from the CLI or HTTP API.
func ParseAction(value string) (queue.Action, bool) {
	switch action := queue.Action(strings.ToLower(strings.TrimSpace(value))); action {
	case queue.ActionApprove, queue.ActionReject, queue.ActionAssign, queue.ActionRetry, queue.ActionReopen:
		return action, true
	default:
		return "", false
	}
}
