package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisCache(rdb, 30*time.Second)
}

func TestRedisCache_GetMiss(t *testing.T) {
	_, c := newTestRedis(t)
	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()

	products := []domain.Product{
		{ID: "1", Name: "X", Description: "d", Price: decimal.RequireFromString("899.99"), Stock: 3},
		{ID: "2", Name: "Y", Price: decimal.RequireFromString("0.10"), Stock: 0},
	}
	require.NoError(t, c.Set(ctx, products))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "X", got[0].Name)
	assert.Equal(t, 3, got[0].Stock)
	assert.True(t, products[0].Price.Equal(got[0].Price))
	assert.True(t, products[1].Price.Equal(got[1].Price))

	ttl := mr.TTL(productsKey)
	assert.GreaterOrEqual(t, ttl, 30*time.Second)
	assert.Less(t, ttl, 35*time.Second)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, []domain.Product{{ID: "1"}}))

	mr.FastForward(40 * time.Second)
	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, []domain.Product{{ID: "1"}}))
	require.NoError(t, c.Delete(ctx))
	assert.False(t, mr.Exists(productsKey))
}

func TestRedisCache_CorruptValue(t *testing.T) {
	mr, c := newTestRedis(t)
	require.NoError(t, mr.Set(productsKey, "not json"))
	_, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, c := newTestRedis(t)
	mr.Close()
	_, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
