package sms

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(time.Minute)
	ctx := context.Background()
	key := RateLimitKey("+254712345678")

	held, err := l.Limited(ctx, key)
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, l.Hold(ctx, key, 50*time.Millisecond))
	held, _ = l.Limited(ctx, key)
	assert.True(t, held)

	time.Sleep(80 * time.Millisecond)
	held, _ = l.Limited(ctx, key)
	assert.False(t, held)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client)
	ctx := context.Background()
	key := RateLimitKey("+254712345678")

	held, err := l.Limited(ctx, key)
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, l.Hold(ctx, key, 5*time.Minute))
	assert.True(t, mr.Exists("sms_rate_limit:+254712345678"))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	held, err = l.Limited(ctx, key)
	require.NoError(t, err)
	assert.True(t, held)

	mr.FastForward(5 * time.Minute)
	held, err = l.Limited(ctx, key)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err = NewRedisLimiter(client).Limited(context.Background(), "k")
	assert.Error(t, err)
}
