package storage

import (
	"context"
	"slices"
	"sync"

	"mercator-hq/harvest/pkg/submission"
)

// MemoryStorage implements submission.Storage using an in-memory map.
// It is intended for tests and dry runs.
type MemoryStorage struct {
	rows map[int64]*submission.Submission
	mu   sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		rows: make(map[int64]*submission.Submission),
	}
}

// Store persists a copy of the submission.
func (s *MemoryStorage) Store(ctx context.Context, sub *submission.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowCopy := *sub
	s.rows[sub.ID] = &rowCopy
	return nil
}

// StoreBatch persists copies of all submissions under one lock.
func (s *MemoryStorage) StoreBatch(ctx context.Context, subs []*submission.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range subs {
		rowCopy := *sub
		s.rows[sub.ID] = &rowCopy
	}
	return nil
}

// QueryStream streams copies of matching submissions ordered by ID. The
// matching set is snapshotted up front so writers are not blocked by a slow
// consumer.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *submission.Query) (<-chan *submission.Submission, <-chan error, error) {
	if err := validateQuery(query); err != nil {
		return nil, nil, err
	}

	rowsCh := make(chan *submission.Submission, streamBuffer)
	errCh := make(chan error, 1)
	snapshot := s.match(query)

	go func() {
		defer close(rowsCh)
		defer close(errCh)

		for _, sub := range snapshot {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case rowsCh <- sub:
			}
		}
	}()

	return rowsCh, errCh, nil
}

// Count returns the number of submissions matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *submission.Query) (int64, error) {
	if err := validateQuery(query); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, sub := range s.rows {
		if matchesQuery(sub, query) {
			count++
		}
	}
	return count, nil
}

// Close drops all rows.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = make(map[int64]*submission.Submission)
	return nil
}

// Size returns the number of rows in storage.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rows)
}

// match returns copies of matching rows, ordered and paginated.
func (s *MemoryStorage) match(query *submission.Query) []*submission.Submission {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.rows))
	for id, sub := range s.rows {
		if matchesQuery(sub, query) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	start := min(query.Offset, len(ids))
	ids = ids[start:]
	if query.Limit > 0 && query.Limit < len(ids) {
		ids = ids[:query.Limit]
	}

	out := make([]*submission.Submission, len(ids))
	for i, id := range ids {
		rowCopy := *s.rows[id]
		out[i] = &rowCopy
	}
	s.mu.RUnlock()

	return out
}

func matchesQuery(sub *submission.Submission, query *submission.Query) bool {
	if query.FormID != 0 && sub.FormID != query.FormID {
		return false
	}
	if query.CompletedOnly && !sub.IsComplete {
		return false
	}
	if query.Since != nil && sub.CreatedAt.Before(*query.Since) {
		return false
	}
	if query.Until != nil && !sub.CreatedAt.Before(*query.Until) {
		return false
	}
	return true
}
