package api

import (
	"context"
	"errors"

	"docmatch/internal/lifecycle"
	"docmatch/internal/queue"
)

// SetActionService captures the operation needed by bulk reviewer actions.
type SetActionService interface {
	Apply(ctx context.Context, id string, action queue.Action, req ActionRequest) (ActionResult, error)
}

type ActionOutcome string

const (
	ActionOutcomeApplied  ActionOutcome = "applied"
	ActionOutcomeNotFound ActionOutcome = "not_found"
	ActionOutcomeRefused  ActionOutcome = "refused"
)

type SetActionResult struct {
	ID        string        `json:"id"`
	Outcome   ActionOutcome `json:"outcome"`
	NewStatus string        `json:"newStatus,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

type SetActionsResult struct {
	AppliedCount int               `json:"appliedCount"`
	Items        []SetActionResult `json:"items"`
}

// ApplyByID applies one action to each id in order. Missing sets, refused
// transitions and sets changed concurrently are reported per id; any other
// error stops the run.
func ApplyByID(ctx context.Context, service SetActionService, action queue.Action, ids []string, req ActionRequest) (SetActionsResult, error) {
	result := SetActionsResult{Items: make([]SetActionResult, 0, len(ids))}
	for _, id := range ids {
		applied, err := service.Apply(ctx, id, action, req)
		switch {
		case err == nil:
			result.AppliedCount++
			result.Items = append(result.Items, SetActionResult{ID: id, Outcome: ActionOutcomeApplied, NewStatus: applied.Set.Status})
		case errors.Is(err, queue.ErrNotFound):
			result.Items = append(result.Items, SetActionResult{ID: id, Outcome: ActionOutcomeNotFound})
		case errors.Is(err, lifecycle.ErrIllegalTransition), errors.Is(err, queue.ErrStaleSet):
			result.Items = append(result.Items, SetActionResult{ID: id, Outcome: ActionOutcomeRefused, Reason: err.Error()})
		default:
			return SetActionsResult{}, err
		}
	}
	return result, nil
}
