package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Index holds an immutable snapshot of every document set. Readers take the
// current snapshot without locking; writers publish a fresh copy. Copies
// handed out by List and GetByID carry DaysInQueue as of the read.
type Index struct {
	mu   sync.Mutex // serializes writers
	sets atomic.Pointer[[]DocumentSet]
	now  func() time.Time
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	idx := &Index{now: time.Now}
	empty := []DocumentSet{}
	idx.sets.Store(&empty)
	return idx
}

// SetClock overrides the time source used to age sets on read.
func (idx *Index) SetClock(now func() time.Time) {
	if now != nil {
		idx.now = now
	}
}

// Load replaces the snapshot with every set held by repo. Sets missing from
// repo are dropped. When the current snapshot already holds a newer version
// of a set, published by a writer while repo was being read, that copy wins.
func (idx *Index) Load(ctx context.Context, repo Repository) error {
	sets, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	current := make(map[string]DocumentSet, idx.Len())
	for _, set := range idx.Snapshot() {
		current[set.ID] = set
	}
	next := make([]DocumentSet, len(sets))
	for i := range sets {
		if held, ok := current[sets[i].ID]; ok && held.Version > sets[i].Version {
			next[i] = held
			continue
		}
		next[i] = sets[i].Clone()
	}
	idx.sets.Store(&next)
	return nil
}

// Put publishes set, replacing any existing entry with the same ID or
// appending it at the end. An entry with a higher Version is kept.
func (idx *Index) Put(set DocumentSet) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	current := idx.Snapshot()
	next := make([]DocumentSet, len(current), len(current)+1)
	copy(next, current)
	replaced := false
	for i := range next {
		if next[i].ID == set.ID {
			if next[i].Version > set.Version {
				return
			}
			next[i] = set.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, set.Clone())
	}
	idx.sets.Store(&next)
}

// Remove drops the set with id from the snapshot.
func (idx *Index) Remove(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	current := idx.Snapshot()
	next := make([]DocumentSet, 0, len(current))
	for _, set := range current {
		if set.ID != id {
			next = append(next, set)
		}
	}
	if len(next) == len(current) {
		return false
	}
	idx.sets.Store(&next)
	return true
}

// Snapshot returns the current published collection. Callers must treat it
// as read-only.
func (idx *Index) Snapshot() []DocumentSet {
	if current := idx.sets.Load(); current != nil {
		return *current
	}
	return nil
}

// Len reports how many sets the current snapshot holds.
func (idx *Index) Len() int {
	return len(idx.Snapshot())
}

// List returns deep copies of the snapshot's sets, optionally filtered by status.
func (idx *Index) List(_ context.Context, statuses ...Status) ([]DocumentSet, error) {
	snapshot := idx.Snapshot()
	now := idx.now()
	wanted := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}
	out := make([]DocumentSet, 0, len(snapshot))
	for _, set := range snapshot {
		if len(wanted) > 0 {
			if _, ok := wanted[set.Status]; !ok {
				continue
			}
		}
		cp := set.Clone()
		cp.DaysInQueue = cp.AgeAt(now)
		out = append(out, cp)
	}
	return out, nil
}

// GetByID returns a copy of the set with id, or nil when absent.
func (idx *Index) GetByID(_ context.Context, id string) (*DocumentSet, error) {
	for _, set := range idx.Snapshot() {
		if set.ID == id {
			cp := set.Clone()
			cp.DaysInQueue = cp.AgeAt(idx.now())
			return &cp, nil
		}
	}
	return nil, nil
}
