package memory

import (
	"context"
	"sync"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
)

// QueueHistoryStore is an in-memory, append-only storage.QueueHistoryStore.
type QueueHistoryStore struct {
	mu      sync.Mutex
	bySource map[string][]*domain.QueueItem
}

// NewQueueHistoryStore returns an empty QueueHistoryStore.
func NewQueueHistoryStore() *QueueHistoryStore {
	return &QueueHistoryStore{bySource: make(map[string][]*domain.QueueItem)}
}

func (s *QueueHistoryStore) Append(ctx context.Context, item *domain.QueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(item.SourceIdentity)
	s.bySource[key] = append(s.bySource[key], item.Clone())
	return nil
}

func (s *QueueHistoryStore) ListBySource(ctx context.Context, sourceIdentity string) ([]*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.bySource[sourceIdentity]
	out := make([]*domain.QueueItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out, nil
}
