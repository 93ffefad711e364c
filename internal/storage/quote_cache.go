package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stock-tracker/internal/types"
)

// QuoteCache caches market-data responses in Redis with a short TTL so
// repeated proxy lookups do not hammer the quote provider. A cache miss
// or Redis failure is never fatal; callers fall through to the provider.
type QuoteCache struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewQuoteCache creates a new quote cache
func NewQuoteCache(redis *RedisCache, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		redis: redis,
		ttl:   ttl,
	}
}

// quoteKey generates the cache key for a symbol. Format: quote:<symbol>
func quoteKey(symbol string) string {
	return "quote:" + strings.ToLower(symbol)
}

// GetQuote retrieves a cached market quote. Returns nil on a miss.
func (c *QuoteCache) GetQuote(ctx context.Context, symbol string) (*types.MarketQuote, error) {
	data, err := c.redis.Client().Get(ctx, quoteKey(symbol)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quote cache: %w", err)
	}

	var quote types.MarketQuote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	return &quote, nil
}

// SetQuote stores a market quote with the configured TTL
func (c *QuoteCache) SetQuote(ctx context.Context, quote *types.MarketQuote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := c.redis.Client().Set(ctx, quoteKey(quote.Symbol), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write quote cache: %w", err)
	}
	return nil
}
