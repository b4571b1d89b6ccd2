package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"docmatch/internal/queue"
)

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	repo     queue.Repository
	pageSize int
}

// NewQueueService constructs a QueueService around the provided repository.
// pageSize is the default applied when a query names none.
func NewQueueService(repo queue.Repository, pageSize int) *QueueService {
	if repo == nil {
		return nil
	}
	if pageSize <= 0 {
		pageSize = queue.DefaultPageSize
	}
	return &QueueService{repo: repo, pageSize: pageSize}
}

// Query runs one filter, search, sort, and paginate request.
func (s *QueueService) Query(ctx context.Context, q queue.Query) (QueuePage, error) {
	if s == nil || s.repo == nil {
		return QueuePage{}, nil
	}
	if q.PageSize == 0 {
		q.PageSize = s.pageSize
	}
	sets, err := s.repo.List(ctx)
	if err != nil {
		return QueuePage{}, fmt.Errorf("list document sets: %w", err)
	}
	result, err := queue.Run(sets, q)
	if err != nil {
		return QueuePage{}, err
	}
	return FromResult(result, effectiveSort(q.Sort)), nil
}

// QueryValues parses string parameters, as they arrive from the command line
// or an HTTP request, and runs the query. Malformed parameters yield a
// *queue.FilterError and the query is not executed.
func (s *QueueService) QueryValues(ctx context.Context, values url.Values) (QueuePage, error) {
	if s == nil {
		return QueuePage{}, nil
	}
	if values.Get("page_size") == "" {
		values = cloneValues(values)
		values.Set("page_size", strconv.Itoa(s.pageSize))
	}
	q, err := queue.ParseQuery(values)
	if err != nil {
		return QueuePage{}, err
	}
	return s.Query(ctx, q)
}

// Describe fetches a single set including its documents. It returns nil
// when the set does not exist.
func (s *QueueService) Describe(ctx context.Context, id string) (*DocumentSetView, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	set, err := s.repo.GetByID(ctx, id)
	if err != nil || set == nil {
		return nil, err
	}
	view := FromDocumentSetDetail(*set)
	return &view, nil
}

// Stats returns set counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	sets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[queue.Status]int)
	for _, set := range sets {
		stats[set.Status]++
	}
	return MergeQueueStats(stats), nil
}

func effectiveSort(sort queue.Sort) queue.Sort {
	if sort.Key == "" {
		sort.Key = queue.DefaultSort().Key
	}
	if sort.Direction == "" {
		sort.Direction = sort.Key.DefaultDirection()
	}
	return sort
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values)+1)
	for key, vals := range values {
		out[key] = append([]string(nil), vals...)
	}
	return out
}
