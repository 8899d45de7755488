package clickhouse

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/storage"
)

// CursorStore is a ClickHouse-backed storage.CursorStore. Each Set issues
// an insert into the underlying ReplacingMergeTree; Get reads the latest
// row per key via ORDER BY ... LIMIT 1 (ClickHouse does not guarantee
// merge-time dedup has already run).
type CursorStore struct {
	conn *Conn
}

// NewCursorStore returns a CursorStore backed by conn.
func NewCursorStore(conn *Conn) *CursorStore {
	return &CursorStore{conn: conn}
}

func (s *CursorStore) Get(ctx context.Context, key string) (*domain.LogCursor, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT last_tick, last_log_id
		FROM log_cursors
		WHERE cursor_key = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, key)

	var lastTick, lastLogID sql.NullInt64
	if err := row.Scan(&lastTick, &lastLogID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	cursor := &domain.LogCursor{}
	if lastTick.Valid {
		v := uint32(lastTick.Int64)
		cursor.LastTick = &v
	}
	if lastLogID.Valid {
		v := uint64(lastLogID.Int64)
		cursor.LastLogID = &v
	}
	return cursor, nil
}

func (s *CursorStore) Set(ctx context.Context, key string, cursor domain.LogCursor) error {
	var lastTick, lastLogID sql.NullInt64
	if cursor.LastTick != nil {
		lastTick = sql.NullInt64{Int64: int64(*cursor.LastTick), Valid: true}
	}
	if cursor.LastLogID != nil {
		lastLogID = sql.NullInt64{Int64: int64(*cursor.LastLogID), Valid: true}
	}
	return s.conn.Exec(ctx, `
		INSERT INTO log_cursors (cursor_key, last_tick, last_log_id, updated_at)
		VALUES (?, ?, ?, now())
	`, key, lastTick, lastLogID)
}
