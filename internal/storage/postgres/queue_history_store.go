package postgres

import (
	"context"
	"errors"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
)

// QueueHistoryStore is a Postgres-backed storage.QueueHistoryStore.
type QueueHistoryStore struct {
	pool *Pool
}

// NewQueueHistoryStore returns a QueueHistoryStore backed by pool.
func NewQueueHistoryStore(pool *Pool) *QueueHistoryStore {
	return &QueueHistoryStore{pool: pool}
}

func (s *QueueHistoryStore) Append(ctx context.Context, item *domain.QueueItem) error {
	var txID, networkTxID, errMessage *string
	if item.TxID != "" {
		txID = &item.TxID
	}
	if item.Result != nil && item.Result.NetworkTxID != "" {
		networkTxID = &item.Result.NetworkTxID
	}
	if item.Err != nil {
		msg := item.Err.Error()
		errMessage = &msg
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO queue_history
			(id, source_identity, target_tick, status, tx_id, network_tx_id, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, string(item.SourceIdentity), int64(item.TargetTick), string(item.Status),
		txID, networkTxID, errMessage, item.CreatedAt)
	if isDuplicateKeyError(err) {
		// The queue calls Append exactly once per item.ID, fire-and-forget
		// (§4.E); a duplicate key means this terminal transition was
		// already recorded, so treat the retry as success rather than
		// surfacing a spurious error.
		return nil
	}
	return err
}

func (s *QueueHistoryStore) ListBySource(ctx context.Context, sourceIdentity string) ([]*domain.QueueItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_identity, target_tick, status, tx_id, network_tx_id, error_message, created_at
		FROM queue_history
		WHERE source_identity = $1
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
			targetTick                        int64
			status                            string
			txID, networkTxID, errMessage     *string
		)
		if err := rows.Scan(&item.ID, &source, &targetTick, &status, &txID, &networkTxID, &errMessage, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.SourceIdentity = domain.Identity(source)
		item.TargetTick = domain.Tick(targetTick)
		item.Status = domain.QueueStatus(status)
		if txID != nil {
			item.TxID = *txID
		}
		if networkTxID != nil {
			item.Result = &domain.BroadcastResult{NetworkTxID: *networkTxID}
		}
		if errMessage != nil {
			item.Err = errors.New(*errMessage)
		}
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
