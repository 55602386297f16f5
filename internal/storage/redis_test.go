package storage

import (
	"context"
	"testing"

	"commerce-storefront/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "test"), mr
}

func TestRedisSetAndGet(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyToken, "tok-1"))

	got, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	raw, err := mr.Get("storefront:test:token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", raw)
	assert.Equal(t, 0, int(mr.TTL("storefront:test:token")), "values must not expire")
}

func TestRedisGetMissing(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), KeyUser)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisRemove(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyToken, "tok"))
	require.NoError(t, store.Set(ctx, KeyUser, "{}"))
	require.NoError(t, store.Set(ctx, KeyCart, "{}"))

	require.NoError(t, store.Remove(ctx, KeyToken, KeyUser))
	assert.False(t, mr.Exists("storefront:test:token"))
	assert.False(t, mr.Exists("storefront:test:user"))
	assert.True(t, mr.Exists("storefront:test:cart"))

	require.NoError(t, store.Remove(ctx))
}

func TestRedisNamespacesAreIsolated(t *testing.T) {
	store, mr := setupTestRedis(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	other := NewRedis(client, "other")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyToken, "a"))
	_, err := other.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Get(context.Background(), KeyToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
