// Package memory implements in-process CursorStore and QueueHistoryStore
// backends, grounded on the teacher's memory-store discipline: one mutex,
// defensive copies on every read and write.
package memory

import (
	"context"
	"sync"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/storage"
)

// CursorStore is an in-memory storage.CursorStore, safe for concurrent use.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]domain.LogCursor
}

// NewCursorStore returns an empty CursorStore.
func NewCursorStore() *CursorStore {
	return &CursorStore{cursors: make(map[string]domain.LogCursor)}
}

func (s *CursorStore) Get(ctx context.Context, key string) (*domain.LogCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cursors[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (s *CursorStore) Set(ctx context.Context, key string, cursor domain.LogCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[key] = cursor
	return nil
}
