package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkovalov/workbot/internal/model"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreSaveAndLoadAll(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	snap := ConversationStats{
		ConversationID: "A",
		TotalCount:     3,
		PerLabelCount:  map[string]int64{model.LabelWork: 2, model.LabelPersonal: 1},
		DailyTotal:     1,
		DailyPerLabel:  map[string]int64{model.LabelWork: 1},
		FirstSeen:      time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		LastSeen:       time.Date(2025, 2, 1, 17, 30, 0, 0, time.UTC),
	}

	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, snap, loaded[0])
}

func TestRedisStoreSaveOverwrites(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	snap := ConversationStats{ConversationID: "A", TotalCount: 1, PerLabelCount: map[string]int64{model.LabelWork: 1}, DailyPerLabel: map[string]int64{}}
	require.NoError(t, store.Save(ctx, snap))

	snap.TotalCount = 2
	snap.PerLabelCount[model.LabelWork] = 2
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(2), loaded[0].TotalCount)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, ConversationStats{ConversationID: "A", TotalCount: 1, PerLabelCount: map[string]int64{}, DailyPerLabel: map[string]int64{}}))
	require.NoError(t, store.Save(ctx, ConversationStats{ConversationID: "B", TotalCount: 1, PerLabelCount: map[string]int64{}, DailyPerLabel: map[string]int64{}}))

	require.NoError(t, store.Delete(ctx, "A"))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "B", loaded[0].ConversationID)
}

func TestRedisStoreLoadAllEmpty(t *testing.T) {
	store, _ := newTestRedisStore(t)

	loaded, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRedisStoreSkipsDanglingIndexEntries(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, ConversationStats{ConversationID: "A", TotalCount: 1, PerLabelCount: map[string]int64{}, DailyPerLabel: map[string]int64{}}))
	mr.Del(statsKey("A"))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRedisStoreValidation(t *testing.T) {
	store, _ := newTestRedisStore(t)

	assert.Error(t, store.Save(context.Background(), ConversationStats{}))
	assert.Error(t, store.Delete(context.Background(), ""))
}
