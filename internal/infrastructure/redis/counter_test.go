package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis levanta un miniredis y devuelve el contador conectado a él.
func setupTestRedis(t *testing.T) (*Counter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCounter(client), mr
}

func TestCounter_IncrementaYFijaExpiracion(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	expireAt := time.Now().Add(2 * time.Hour)

	n, err := c.Incr(ctx, "ratelimit:org:o1:2026-10-16", expireAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "ratelimit:org:o1:2026-10-16", expireAt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl := mr.TTL("ratelimit:org:o1:2026-10-16")
	assert.Greater(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, 2*time.Hour)
}

func TestCounter_ClavesIndependientes(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	_, err := c.Incr(ctx, "ratelimit:org:o1:2026-10-16", exp)
	require.NoError(t, err)
	n, err := c.Incr(ctx, "ratelimit:org:o2:2026-10-16", exp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCounter_ExpiraYReinicia(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := c.Incr(ctx, "k", time.Now().Add(time.Minute))
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	n, err := c.Incr(ctx, "k", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCounter_ErrorSiRedisCae(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewCounter(client)
	mr.Close()

	_, err = c.Incr(context.Background(), "k", time.Now().Add(time.Minute))
	assert.Error(t, err)
}
