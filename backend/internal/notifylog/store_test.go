package notifylog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "follownet/backend/pkg/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppend_GeneratesIDAndDefaults(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	stored, err := store.Append(ctx, &Notification{
		UserID:              2,
		TriggeredByUserID:   1,
		Type:                "follow",
		TriggeredByUsername: "alice",
	})
	require.NoError(t, err)

	assert.NotZero(t, stored.ID)
	assert.False(t, stored.IsRead)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestListForUser_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, &Notification{
			UserID:              2,
			TriggeredByUserID:   1,
			Type:                "follow",
			TriggeredByUsername: "alice",
			CreatedAt:           base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	// Noise for another recipient
	_, err := store.Append(ctx, &Notification{
		UserID: 9, TriggeredByUserID: 1, Type: "follow", TriggeredByUsername: "alice",
	})
	require.NoError(t, err)

	got, err := store.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))
	assert.True(t, got[1].CreatedAt.After(got[2].CreatedAt))
}

func TestListForUser_EmptyIsNotError(t *testing.T) {
	got, err := openTestStore(t).ListForUser(context.Background(), 123)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	stored, err := store.Append(ctx, &Notification{
		UserID: 2, TriggeredByUserID: 1, Type: "unfollow", TriggeredByUsername: "alice",
	})
	require.NoError(t, err)

	require.NoError(t, store.MarkRead(ctx, stored.ID))

	got, err := store.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsRead)

	err = store.MarkRead(ctx, 9999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUnreadCount(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var readID int64
	for i := 0; i < 3; i++ {
		stored, err := store.Append(ctx, &Notification{
			UserID: 2, TriggeredByUserID: 1, Type: "follow", TriggeredByUsername: "alice",
		})
		require.NoError(t, err)
		readID = stored.ID
	}
	require.NoError(t, store.MarkRead(ctx, readID))

	count, err := store.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPrune_OnlyOldReadEvents(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	old := time.Now().UTC().AddDate(0, 0, -45)

	oldRead, err := store.Append(ctx, &Notification{
		UserID: 2, TriggeredByUserID: 1, Type: "follow", TriggeredByUsername: "alice", CreatedAt: old,
	})
	require.NoError(t, err)
	require.NoError(t, store.MarkRead(ctx, oldRead.ID))

	// Old but unread: never pruned regardless of age
	_, err = store.Append(ctx, &Notification{
		UserID: 2, TriggeredByUserID: 3, Type: "follow", TriggeredByUsername: "bob", CreatedAt: old,
	})
	require.NoError(t, err)

	// Recent and read: too young to prune
	recentRead, err := store.Append(ctx, &Notification{
		UserID: 2, TriggeredByUserID: 4, Type: "unfollow", TriggeredByUsername: "carol",
	})
	require.NoError(t, err)
	require.NoError(t, store.MarkRead(ctx, recentRead.ID))

	deleted, err := store.Prune(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := store.ListForUser(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
	for _, n := range remaining {
		assert.NotEqual(t, oldRead.ID, n.ID)
	}
}
