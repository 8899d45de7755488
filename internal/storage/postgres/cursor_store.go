package postgres

import (
	"context"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/storage"
)

// CursorStore is a Postgres-backed storage.CursorStore.
type CursorStore struct {
	pool *Pool
}

// NewCursorStore returns a CursorStore backed by pool.
func NewCursorStore(pool *Pool) *CursorStore {
	return &CursorStore{pool: pool}
}

func (s *CursorStore) Get(ctx context.Context, key string) (*domain.LogCursor, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT last_tick, last_log_id FROM log_cursors WHERE cursor_key = $1`, key)

	var lastTick, lastLogID *int64
	if err := row.Scan(&lastTick, &lastLogID); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	cursor := &domain.LogCursor{}
	if lastTick != nil {
		v := uint32(*lastTick)
		cursor.LastTick = &v
	}
	if lastLogID != nil {
		v := uint64(*lastLogID)
		cursor.LastLogID = &v
	}
	return cursor, nil
}

func (s *CursorStore) Set(ctx context.Context, key string, cursor domain.LogCursor) error {
	var lastTick, lastLogID *int64
	if cursor.LastTick != nil {
		v := int64(*cursor.LastTick)
		lastTick = &v
	}
	if cursor.LastLogID != nil {
		v := int64(*cursor.LastLogID)
		lastLogID = &v
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO log_cursors (cursor_key, last_tick, last_log_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (cursor_key) DO UPDATE
		SET last_tick = EXCLUDED.last_tick,
		    last_log_id = EXCLUDED.last_log_id,
		    updated_at = now()
	`, key, lastTick, lastLogID)
	return err
}
