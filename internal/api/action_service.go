package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docmatch/internal/lifecycle"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
	"docmatch/internal/workflow"
)

// Evaluator runs matching over a batch of sets.
type Evaluator interface {
	EvaluateAll(ctx context.Context, ids []string) (workflow.BatchSummary, error)
}

// ActionService applies changes to document sets and keeps the index current.
type ActionService struct {
	store     *queue.Store
	index     *queue.Index
	evaluator Evaluator
	logger    *slog.Logger
	now       func() time.Time
}

// NewActionService wires the store, the index to republish into, and the
// evaluator used after imports and retries. index and evaluator may be nil.
func NewActionService(store *queue.Store, index *queue.Index, evaluator Evaluator, logger *slog.Logger) *ActionService {
	return &ActionService{
		store:     store,
		index:     index,
		evaluator: evaluator,
		logger:    logging.NewComponentLogger(logger, "actions"),
		now:       time.Now,
	}
}

// SetClock overrides the time source for activity timestamps.
func (s *ActionService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Apply performs a reviewer action on one set. A missing set yields an error
// wrapping queue.ErrNotFound; a forbidden action yields a
// *lifecycle.IllegalTransitionError and leaves the set untouched. Retry and
// reopen re-evaluate the set immediately when an evaluator is configured.
func (s *ActionService) Apply(ctx context.Context, id string, action queue.Action, req ActionRequest) (ActionResult, error) {
	logger := s.logger.With(logging.SetID(id), logging.String(logging.FieldAction, string(action)))
	set, err := s.store.GetByID(ctx, id)
	if err != nil {
		return ActionResult{}, err
	}
	if set == nil {
		return ActionResult{}, fmt.Errorf("%w: %s", queue.ErrNotFound, id)
	}

	updated, activity, err := lifecycle.Apply(*set, lifecycle.Request{
		Action: action,
		Actor:  strings.TrimSpace(req.Actor),
		Note:   strings.TrimSpace(req.Note),
		At:     s.now(),
	})
	if err != nil {
		logger.Info("reviewer action refused",
			logging.String(logging.FieldEventType, "action_refused"),
			logging.String(logging.FieldStatus, string(set.Status)),
			logging.Error(err),
		)
		return ActionResult{}, err
	}
	activity, err = s.commit(ctx, &updated, activity)
	if err != nil {
		return ActionResult{}, err
	}
	logger.Info("reviewer action applied",
		logging.String(logging.FieldEventType, "action_applied"),
		logging.String("from", string(activity.From)),
		logging.String(logging.FieldStatus, string(activity.To)),
		logging.String("actor", activity.Actor),
	)

	if s.evaluator != nil && (action == queue.ActionRetry || action == queue.ActionReopen) {
		if _, err := s.evaluator.EvaluateAll(ctx, []string{id}); err != nil {
			logging.WarnWithContext(logger, "re-evaluation after action failed", "reevaluate_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "set stays incomplete until the next poll"),
			)
		} else if refreshed, err := s.store.GetByID(ctx, id); err == nil && refreshed != nil {
			updated = *refreshed
		}
	}
	return ActionResult{Set: FromDocumentSetDetail(updated), Activity: FromActivity(activity)}, nil
}

// Import persists new sets, records an import activity for each, and
// evaluates them when an evaluator is configured. An existing ID fails the
// import before anything is written; the sets and their activity entries
// are written in one transaction.
func (s *ActionService) Import(ctx context.Context, sets []queue.DocumentSet, actor string) (ImportResult, error) {
	seen := make(map[string]struct{}, len(sets))
	for _, set := range sets {
		if set.ID == "" {
			continue
		}
		if _, dup := seen[set.ID]; dup {
			return ImportResult{}, &DuplicateSetError{ID: set.ID}
		}
		seen[set.ID] = struct{}{}
		existing, err := s.store.GetByID(ctx, set.ID)
		if err != nil {
			return ImportResult{}, err
		}
		if existing != nil {
			return ImportResult{}, &DuplicateSetError{ID: set.ID}
		}
	}

	at := s.now()
	stored, _, err := s.store.InsertAll(ctx, sets, func(set queue.DocumentSet) queue.Activity {
		return queue.Activity{
			SetID:  set.ID,
			Action: queue.ActionImport,
			To:     set.Status,
			Actor:  strings.TrimSpace(actor),
			At:     at,
		}
	})
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportResult{Imported: make([]string, 0, len(stored))}
	for _, set := range stored {
		if s.index != nil {
			s.index.Put(set)
		}
		result.Imported = append(result.Imported, set.ID)
	}
	s.logger.Info("document sets imported",
		logging.String(logging.FieldEventType, "sets_imported"),
		logging.Int("count", len(result.Imported)),
	)

	if s.evaluator != nil && len(result.Imported) > 0 {
		summary, err := s.evaluator.EvaluateAll(ctx, result.Imported)
		if err != nil {
			return result, fmt.Errorf("evaluate imported sets: %w", err)
		}
		view := FromBatchSummary(summary)
		result.Evaluation = &view
	}
	return result, nil
}

// Evaluate runs an evaluation batch over ids, or over every open set when
// ids is empty.
func (s *ActionService) Evaluate(ctx context.Context, ids []string) (EvaluationView, error) {
	if s.evaluator == nil {
		return EvaluationView{}, errors.New("evaluation is not configured")
	}
	summary, err := s.evaluator.EvaluateAll(ctx, ids)
	if err != nil {
		return EvaluationView{}, err
	}
	return FromBatchSummary(summary), nil
}

// Activity returns the audit trail for a set, oldest first.
func (s *ActionService) Activity(ctx context.Context, id string) ([]ActivityView, error) {
	set, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, fmt.Errorf("%w: %s", queue.ErrNotFound, id)
	}
	entries, err := s.store.Activity(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromActivities(entries), nil
}

// Remove deletes a set with its documents and audit trail.
func (s *ActionService) Remove(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if s.index != nil {
		s.index.Remove(id)
	}
	if !removed {
		return fmt.Errorf("%w: %s", queue.ErrNotFound, id)
	}
	s.logger.Info("document set removed",
		logging.String(logging.FieldEventType, "set_removed"),
		logging.SetID(id),
	)
	return nil
}

// Clear deletes every set and returns how many were removed.
func (s *ActionService) Clear(ctx context.Context) (int64, error) {
	removed, err := s.store.Clear(ctx)
	if err != nil {
		return 0, err
	}
	if s.index != nil {
		if err := s.index.Load(ctx, s.store); err != nil {
			return removed, err
		}
	}
	s.logger.Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_cleared"),
		logging.Int("removed", int(removed)),
	)
	return removed, nil
}

// commit writes set and its activity entry together. A set changed by
// another writer since it was read yields a *queue.StaleSetError.
func (s *ActionService) commit(ctx context.Context, set *queue.DocumentSet, activity queue.Activity) (queue.Activity, error) {
	recorded, err := s.store.Save(ctx, set, activity)
	if err != nil {
		return queue.Activity{}, err
	}
	if s.index != nil {
		s.index.Put(*set)
	}
	return recorded, nil
}
