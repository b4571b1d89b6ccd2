package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docmatch/internal/lifecycle"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
)

// SetOutcome describes what happened to one set in a batch.
type SetOutcome struct {
	SetID   string            `json:"set_id"`
	From    queue.Status      `json:"from"`
	To      queue.Status      `json:"to"`
	Issues  queue.IssueCounts `json:"issues"`
	Changed bool              `json:"changed"`
	Error   string            `json:"error,omitempty"`
}

// BatchSummary reports the result of one EvaluateAll call.
type BatchSummary struct {
	RequestID string        `json:"request_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Requested int           `json:"requested"`
	Evaluated int           `json:"evaluated"`
	Changed   int           `json:"changed"`
	Failed    int           `json:"failed"`
	Missing   []string      `json:"missing,omitempty"`
	Errors    int           `json:"errors"`
	Outcomes  []SetOutcome  `json:"outcomes"`
}

// EvaluateAll evaluates the named sets, or every incomplete and
// ready_for_review set when ids is empty. Per-set failures are reported in
// the summary; the returned error is reserved for failures to start the
// batch or cancellation.
func (m *Manager) EvaluateAll(ctx context.Context, ids []string) (BatchSummary, error) {
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, m.logger)

	summary := BatchSummary{RequestID: requestID, StartedAt: m.now()}
	targets, err := m.resolveTargets(ctx, ids)
	if err != nil {
		return summary, err
	}
	summary.Requested = len(targets)
	if len(targets) == 0 {
		logger.Debug("no document sets to evaluate")
		return summary, nil
	}

	tasks := make(chan string)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for range min(m.workers, len(targets)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range tasks {
				outcome, kind := m.evaluateOne(ctx, logger, id)
				mu.Lock()
				summary.record(id, outcome, kind)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, id := range targets {
		select {
		case <-ctx.Done():
			break dispatch
		case tasks <- id:
		}
	}
	close(tasks)
	wg.Wait()

	slices.SortFunc(summary.Outcomes, func(a, b SetOutcome) int { return strings.Compare(a.SetID, b.SetID) })
	slices.Sort(summary.Missing)
	summary.Duration = m.now().Sub(summary.StartedAt)

	logger.Info("evaluation batch finished",
		logging.String(logging.FieldEventType, "evaluation_batch_finished"),
		logging.Int("requested", summary.Requested),
		logging.Int("evaluated", summary.Evaluated),
		logging.Int("changed", summary.Changed),
		logging.Int("failed", summary.Failed),
		logging.Int("errors", summary.Errors),
	)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (m *Manager) resolveTargets(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) > 0 {
		seen := make(map[string]struct{}, len(ids))
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
		return out, nil
	}
	sets, err := m.store.List(ctx, queue.StatusIncomplete, queue.StatusReadyForReview)
	if err != nil {
		return nil, fmt.Errorf("list open sets: %w", err)
	}
	out := make([]string, 0, len(sets))
	for _, set := range sets {
		out = append(out, set.ID)
	}
	return out, nil
}

type resultKind int

const (
	resultEvaluated resultKind = iota
	resultMissing
	resultError
)

// maxStaleRetries bounds how often a set is re-read after another writer
// changed it mid-evaluation.
const maxStaleRetries = 3

func (m *Manager) evaluateOne(ctx context.Context, logger *slog.Logger, id string) (SetOutcome, resultKind) {
	logger = logger.With(logging.SetID(id))
	for attempt := 1; ; attempt++ {
		set, err := m.store.GetByID(ctx, id)
		if err != nil {
			logging.WarnWithContext(logger, "load document set failed", "set_load_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check database health with 'docmatch queue status'"),
			)
			return SetOutcome{SetID: id, Error: err.Error()}, resultError
		}
		if set == nil {
			logging.WarnWithContext(logger, "document set not found; skipping", "set_missing",
				logging.String(logging.FieldImpact, "set was not evaluated"),
			)
			return SetOutcome{}, resultMissing
		}

		out := lifecycle.Evaluate(*set, m.cfg.Policy(), m.now())
		outcome := SetOutcome{
			SetID:   id,
			From:    set.Status,
			To:      out.Set.Status,
			Issues:  out.Set.Issues,
			Changed: out.Changed,
		}
		if !out.Changed {
			return outcome, resultEvaluated
		}

		err = m.persist(ctx, out)
		if errors.Is(err, queue.ErrStaleSet) && attempt < maxStaleRetries {
			logger.Debug("document set changed during evaluation; re-reading", logging.Int("attempt", attempt))
			continue
		}
		if err != nil {
			outcome.Changed = false
			outcome.Error = err.Error()
			logging.ErrorWithContext(logger, "persist evaluation failed", "set_persist_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, queue.ErrorKind(err)),
				logging.String(logging.FieldErrorHint, "check database permissions and free disk space"),
			)
			return outcome, resultError
		}
		if out.Err != nil {
			outcome.Error = out.Err.Error()
			logging.WarnWithContext(logger, "document set failed evaluation", "set_processing_failed",
				logging.Error(out.Err),
				logging.String(logging.FieldErrorKind, queue.ErrorKind(out.Err)),
				logging.String(logging.FieldErrorHint, "fix the document data, then retry the set"),
				logging.String(logging.FieldImpact, "set moved to processing_failed"),
			)
			return outcome, resultEvaluated
		}
		logger.Info("document set evaluated",
			logging.String(logging.FieldEventType, "set_evaluated"),
			logging.String("from", string(outcome.From)),
			logging.String(logging.FieldStatus, string(outcome.To)),
			logging.Int("issues_major", outcome.Issues.Major),
			logging.Int("issues_minor", outcome.Issues.Minor),
		)
		return outcome, resultEvaluated
	}
}

func (m *Manager) persist(ctx context.Context, out lifecycle.Outcome) error {
	set := out.Set
	if out.Activity != nil {
		entry := *out.Activity
		if entry.Actor == "" {
			entry.Actor = SystemActor
		}
		if _, err := m.store.Save(ctx, &set, entry); err != nil {
			return err
		}
	} else if err := m.store.Update(ctx, &set); err != nil {
		return err
	}
	if m.index != nil {
		m.index.Put(set)
	}
	return nil
}

func (s *BatchSummary) record(id string, outcome SetOutcome, kind resultKind) {
	switch kind {
	case resultMissing:
		s.Missing = append(s.Missing, id)
		return
	case resultError:
		s.Errors++
	default:
		s.Evaluated++
		if outcome.Changed {
			s.Changed++
		}
		if outcome.Error != "" {
			s.Failed++
		}
	}
	s.Outcomes = append(s.Outcomes, outcome)
}
