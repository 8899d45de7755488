package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/storage"
)

func TestCursorStore_GetMissingReturnsErrNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCursorStore(pool)
	_, err := store.Get(context.Background(), "5:1")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCursorStore_SetThenGetRoundTrips(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCursorStore(pool)
	ctx := context.Background()

	err := store.Set(ctx, "5:1", domain.LogCursor{LastLogID: ptr(uint64(42))})
	require.NoError(t, err)

	cursor, err := store.Get(ctx, "5:1")
	require.NoError(t, err)
	require.NotNil(t, cursor.LastLogID)
	require.Equal(t, uint64(42), *cursor.LastLogID)
	require.Nil(t, cursor.LastTick)
}

func TestCursorStore_SetOverwritesPreviousValue(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCursorStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "5:1", domain.LogCursor{LastTick: ptr(uint32(10))}))
	require.NoError(t, store.Set(ctx, "5:1", domain.LogCursor{LastTick: ptr(uint32(20))}))

	cursor, err := store.Get(ctx, "5:1")
	require.NoError(t, err)
	require.Equal(t, uint32(20), *cursor.LastTick)
}
