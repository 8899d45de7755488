package clickhouse

import (
	"context"
	"database/sql"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
)

// QueueHistoryStore is a ClickHouse-backed storage.QueueHistoryStore.
type QueueHistoryStore struct {
	conn *Conn
}

// NewQueueHistoryStore returns a QueueHistoryStore backed by conn.
func NewQueueHistoryStore(conn *Conn) *QueueHistoryStore {
	return &QueueHistoryStore{conn: conn}
}

func (s *QueueHistoryStore) Append(ctx context.Context, item *domain.QueueItem) error {
	var txID, networkTxID, errMessage sql.NullString
	if item.TxID != "" {
		txID = sql.NullString{String: item.TxID, Valid: true}
	}
	if item.Result != nil && item.Result.NetworkTxID != "" {
		networkTxID = sql.NullString{String: item.Result.NetworkTxID, Valid: true}
	}
	if item.Err != nil {
		errMessage = sql.NullString{String: item.Err.Error(), Valid: true}
	}

	return s.conn.Exec(ctx, `
		INSERT INTO queue_history
			(id, source_identity, target_tick, status, tx_id, network_tx_id, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, string(item.SourceIdentity), uint64(item.TargetTick), string(item.Status),
		txID, networkTxID, errMessage, item.CreatedAt)
}

func (s *QueueHistoryStore) ListBySource(ctx context.Context, sourceIdentity string) ([]*domain.QueueItem, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, source_identity, target_tick, status, tx_id, network_tx_id, error_message, created_at
		FROM queue_history
		WHERE source_identity = ?
		ORDER BY recorded_at ASC
	`, sourceIdentity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.QueueItem
	for rows.Next() {
		var (
			item                              domain.QueueItem
			source                            string
			targetTick                        uint64
			status                            string
			txID, networkTxID, errMessage     sql.NullString
		)
		if err := rows.Scan(&item.ID, &source, &targetTick, &status, &txID, &networkTxID, &errMessage, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.SourceIdentity = domain.Identity(source)
		item.TargetTick = domain.Tick(targetTick)
		item.Status = domain.QueueStatus(status)
		if txID.Valid {
			item.TxID = txID.String
		}
		if networkTxID.Valid {
			item.Result = &domain.BroadcastResult{NetworkTxID: networkTxID.String}
		}
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
