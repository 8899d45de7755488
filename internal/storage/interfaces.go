// Package storage defines the pluggable persistence surfaces consumed by
// the log-stream engine (cursor checkpoints) and the transaction queue
// (terminal-item audit history), plus their memory/postgres/clickhouse
// backends in the corresponding subpackages.
package storage

import (
	"context"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
)

// CursorStore persists per-subscription log-stream cursors, keyed by
// domain.CursorKey(scIndex, logType) (§4.I). Get returns ErrNotFound when
// no cursor has been written for key.
type CursorStore interface {
	Get(ctx context.Context, key string) (*domain.LogCursor, error)
	Set(ctx context.Context, key string, cursor domain.LogCursor) error
}

// QueueHistoryStore durably records every terminal queue-item transition
// (§4.E) beyond the in-process history list, so a caller can reconcile
// what the queue believed happened even across restarts.
type QueueHistoryStore interface {
	Append(ctx context.Context, item *domain.QueueItem) error
	ListBySource(ctx context.Context, sourceIdentity string) ([]*domain.QueueItem, error)
}
