package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRevoker(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	r := NewRedisRevoker(client)

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(keyPrefix+"jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "la revocación vence junto con el token")
}

func TestRedisRevoker_RedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()
	_, err := NewRedisRevoker(client).IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "a", time.Minute))
	ok, _ := r.IsRevoked(ctx, "a")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = r.IsRevoked(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, r.Revoke(ctx, "b", time.Minute))
	assert.NotContains(t, r.revoked, "a", "las entradas vencidas se purgan")
}
