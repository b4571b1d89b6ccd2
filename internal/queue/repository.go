package queue

import "context"

// Repository supplies document sets to the queue engine. Store and Index both
// satisfy it.
//
//go:generate mockgen -destination=../api/mocks/mock_repository.go -package=mocks docmatch/internal/queue Repository
type Repository interface {
	List(ctx context.Context, statuses ...Status) ([]DocumentSet, error)
	GetByID(ctx context.Context, id string) (*DocumentSet, error)
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*Index)(nil)
)
