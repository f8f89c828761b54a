package statusdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	merrors "github.com/openacq/metamigrate/internal/errors"
)

// MemoryStore keeps status rows in process memory. It backs tests and the
// default memory:// DSN, where sync runs want the report but no durable
// table.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Row
}

// NewMemoryStore returns an empty in-memory status table.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Row)}
}

func (s *MemoryStore) Record(_ context.Context, row Row) error {
	if row.V1ID == "" {
		return fmt.Errorf("%w: status row has no v1 id", merrors.ErrMalformed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.V1ID] = row
	return nil
}

func (s *MemoryStore) Get(_ context.Context, v1ID string) (Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[v1ID]
	if !ok {
		return Row{}, fmt.Errorf("%w: no status row for %q", merrors.ErrNotFound, v1ID)
	}
	return row, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]Row, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].V1ID < rows[j].V1ID })
	return rows, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
