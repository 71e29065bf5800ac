package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "nested", "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, server := range []string{"srv-a", "srv-b", "srv-a"} {
		require.NoError(t, store.Record(ctx, Record{
			Event:      EventDatapacksInstalled,
			ServerUUID: server,
			World:      "world",
			PackType:   "datapacks",
			PacksCount: i + 1,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := store.Recent(ctx, "srv-a", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].PacksCount)
	assert.Equal(t, 1, records[1].PacksCount)

	all, err := store.Recent(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := store.Recent(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "srv-a", limited[0].ServerUUID)
}

func TestStore_RecordSetsCreatedAt(t *testing.T) {
	store := openTestStore(t)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	require.NoError(t, store.Record(context.Background(), Record{Event: EventDatapacksInstalled, ServerUUID: "srv"}))

	records, err := store.Recent(context.Background(), "srv", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, fixed.Equal(records[0].CreatedAt))
	assert.NotZero(t, records[0].ID)
}

func TestStore_ImplementsInterfaces(t *testing.T) {
	var _ Sink = (*Store)(nil)
	var _ Lister = (*Store)(nil)
	var _ Sink = LogSink{}

	assert.NoError(t, LogSink{}.Record(context.Background(), Record{Event: EventDatapacksInstalled}))
}
