package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stock-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuoteCache(t *testing.T, ttl time.Duration) (*QuoteCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewQuoteCache(NewRedisCacheFromClient(client), ttl), mr
}

func TestQuoteCache_SetGet(t *testing.T) {
	cache, _ := newTestQuoteCache(t, time.Minute)
	ctx := context.Background()

	quote := &types.MarketQuote{
		Symbol:        "NVDA",
		Name:          "NVIDIA Corporation",
		Price:         187.42,
		Change:        12.1,
		ChangePercent: 6.9,
		Volume:        1000000,
	}

	require.NoError(t, cache.SetQuote(ctx, quote))

	got, err := cache.GetQuote(ctx, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "NVDA", got.Symbol)
	assert.Equal(t, "NVIDIA Corporation", got.Name)
	assert.Equal(t, 187.42, got.Price)
}

func TestQuoteCache_MissReturnsNil(t *testing.T) {
	cache, _ := newTestQuoteCache(t, time.Minute)

	got, err := cache.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQuoteCache_KeyIsCaseInsensitive(t *testing.T) {
	cache, _ := newTestQuoteCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetQuote(ctx, &types.MarketQuote{Symbol: "msft", Price: 400}))

	got, err := cache.GetQuote(ctx, "MSFT")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestQuoteCache_Expiry(t *testing.T) {
	cache, mr := newTestQuoteCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetQuote(ctx, &types.MarketQuote{Symbol: "NVDA", Price: 200}))

	mr.FastForward(2 * time.Minute)

	got, err := cache.GetQuote(ctx, "NVDA")
	require.NoError(t, err)
	assert.Nil(t, got)
}
