package counter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCounter(t *testing.T) (*RedisCounter, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := NewRedisCounter(client)
	c.now = func() time.Time {
		return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	}
	return c, mr
}

func TestNext_Format(t *testing.T) {
	c, _ := setupCounter(t)

	inv, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INV-20260828-0001", inv)
}

func TestNext_Monotonic(t *testing.T) {
	c, _ := setupCounter(t)
	ctx := context.Background()

	first, err := c.Next(ctx)
	require.NoError(t, err)
	second, err := c.Next(ctx)
	require.NoError(t, err)
	third, err := c.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, "INV-20260828-0001", first)
	assert.Equal(t, "INV-20260828-0002", second)
	assert.Equal(t, "INV-20260828-0003", third)
}

func TestNext_ResetsPerDay(t *testing.T) {
	c, _ := setupCounter(t)
	ctx := context.Background()

	_, err := c.Next(ctx)
	require.NoError(t, err)

	c.now = func() time.Time {
		return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	}

	inv, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260829-0001", inv)
}

func TestNext_DailyKeyExpires(t *testing.T) {
	c, mr := setupCounter(t)

	_, err := c.Next(context.Background())
	require.NoError(t, err)

	assert.Greater(t, mr.TTL("invoice-seq:20260828"), time.Duration(0))
}
