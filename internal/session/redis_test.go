package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	// Create an in-memory Redis server
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestRedisStore_SaveLoadRoundTrip(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	sess := New()
	require.NoError(t, sess.Set("cart", map[string]int{"1": 2}))

	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.False(t, loaded.IsNew)

	var cart map[string]int
	ok, err := loaded.Get("cart", &cart)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"1": 2}, cart)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	loaded, err := store.Load(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, loaded)
}

func TestRedisStore_LoadInvalidJSON(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set(storeKey("broken"), "{invalid json")

	loaded, err := store.Load(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, loaded)
}

func TestRedisStore_SaveSetsTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	sess := New()
	require.NoError(t, store.Save(context.Background(), sess))

	ttl := mr.TTL(storeKey(sess.ID))
	assert.GreaterOrEqual(t, ttl, store.baseTTL)
	assert.Less(t, ttl, store.baseTTL+time.Hour)
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	sess := New()
	require.NoError(t, store.Save(ctx, sess))
	require.True(t, mr.Exists(storeKey(sess.ID)))

	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_WireFormat(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	sess := New()
	require.NoError(t, sess.Set("cart", map[string]any{
		"42": map[string]any{"quantity": 2, "price": "9.99"},
	}))
	require.NoError(t, store.Save(context.Background(), sess))

	// The stored blob is a plain JSON object keyed by value name
	raw, err := mr.Get(storeKey(sess.ID))
	require.NoError(t, err)

	var decoded map[string]map[string]struct {
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, 2, decoded["cart"]["42"].Quantity)
	assert.Equal(t, "9.99", decoded["cart"]["42"].Price)
}
