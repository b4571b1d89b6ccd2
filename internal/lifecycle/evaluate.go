package lifecycle

import (
	"fmt"
	"time"

	"docmatch/internal/matching"
	"docmatch/internal/queue"
	"docmatch/internal/variance"
)

// Outcome is the result of evaluating one set.
type Outcome struct {
	Set      queue.DocumentSet
	Result   matching.Result
	Err      error
	Changed  bool
	Activity *queue.Activity
}

// Evaluate runs the matcher over set and applies the automatic transitions.
// Matching failures, including panics, move the set to processing_failed
// with the reason retained; they are reported in Outcome.Err and never
// returned to the caller as a failure of the batch.
func Evaluate(set queue.DocumentSet, policy variance.Policy, at time.Time) (out Outcome) {
	before := set
	work := set.Clone()
	out.Set = work
	if set.Status.IsTerminal() {
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("matching panicked: %v", r)
			out = finish(before, markFailed(set.Clone(), err.Error()), matching.Result{}, err, at)
		}
	}()

	result, err := matching.Evaluate(work, policy)
	if err != nil {
		return finish(before, markFailed(work, err.Error()), matching.Result{}, err, at)
	}

	switch {
	case !result.Complete:
		work.Status = queue.StatusIncomplete
		work.Issues = queue.IssueCounts{}
		work.Verification = queue.VerificationNone
	case !work.ApprovedForMatch():
		// Complete but not every document passed the ready-for-match gate.
		work.Status = queue.StatusIncomplete
		work.Issues = queue.IssueCounts{}
		work.Verification = queue.VerificationNone
		result = matching.Result{Complete: true}
	default:
		work.Issues = result.Counts()
		if work.Issues.Total() == 0 {
			work.Status = queue.StatusVerified
			work.Verification = queue.VerificationAutoApproved
		} else {
			work.Status = queue.StatusReadyForReview
			work.Verification = queue.VerificationNone
		}
	}
	work.ErrorMessage = ""
	return finish(before, work, result, nil, at)
}

func markFailed(set queue.DocumentSet, reason string) queue.DocumentSet {
	set.Status = queue.StatusProcessingFailed
	set.Verification = queue.VerificationNone
	set.Issues = queue.IssueCounts{}
	set.ErrorMessage = reason
	return set
}

func finish(before, after queue.DocumentSet, result matching.Result, err error, at time.Time) Outcome {
	out := Outcome{Set: after, Result: result, Err: err}
	if before.Status == after.Status &&
		before.Issues == after.Issues &&
		before.Verification == after.Verification &&
		before.ErrorMessage == after.ErrorMessage {
		return out
	}
	out.Changed = true
	out.Set.LastActivityAt = at
	action := queue.ActionEvaluate
	note := summarize(after)
	if err != nil {
		action = queue.ActionFail
		note = err.Error()
	}
	out.Activity = &queue.Activity{
		SetID:  after.ID,
		Action: action,
		From:   before.Status,
		To:     after.Status,
		Note:   note,
		At:     at,
	}
	return out
}

func summarize(set queue.DocumentSet) string {
	switch set.Status {
	case queue.StatusIncomplete:
		if set.DocumentsPresent().Complete() {
			return "awaiting ready-for-match approval"
		}
		return "missing documents"
	case queue.StatusVerified:
		return "no discrepancies"
	default:
		return fmt.Sprintf("%d major, %d minor issues", set.Issues.Major, set.Issues.Minor)
	}
}
