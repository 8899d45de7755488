package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
)

func TestQueueHistoryStore_AppendThenListBySource(t *testing.T) {
	store := NewQueueHistoryStore()
	ctx := context.Background()

	item := &domain.QueueItem{
		ID:             "item-1",
		SourceIdentity: "SRCIDENTITY",
		TargetTick:     1000,
		Status:         domain.StatusConfirmed,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, store.Append(ctx, item))

	item.Status = domain.StatusFailed // mutate caller's copy after Append

	items, err := store.ListBySource(ctx, "SRCIDENTITY")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, domain.StatusConfirmed, items[0].Status, "Append must defensively copy the item")
}

func TestQueueHistoryStore_ListBySourceIsEmptyForUnknownSource(t *testing.T) {
	store := NewQueueHistoryStore()
	items, err := store.ListBySource(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	require.Empty(t, items)
}
