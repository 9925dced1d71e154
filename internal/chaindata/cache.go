package chaindata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PriceCache stores price snapshots for a bounded time.
type PriceCache interface {
	// Get returns the cached price, or ok=false on a miss or expiry.
	Get(ctx context.Context, key string) (p *EthPrice, ok bool, err error)

	// Set stores p under key for ttl.
	Set(ctx context.Context, key string, p *EthPrice, ttl time.Duration) error
}

// MemoryPriceCache is an in-process PriceCache.
type MemoryPriceCache struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	price   EthPrice
	expires time.Time
}

// NewMemoryPriceCache creates an empty cache.
func NewMemoryPriceCache() *MemoryPriceCache {
	return &MemoryPriceCache{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (c *MemoryPriceCache) Get(_ context.Context, key string) (*EthPrice, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.data, key)
		return nil, false, nil
	}
	p := entry.price
	return &p, true, nil
}

func (c *MemoryPriceCache) Set(_ context.Context, key string, p *EthPrice, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = memoryEntry{price: *p, expires: c.now().Add(ttl)}
	return nil
}

// RedisPriceCache stores prices as JSON strings with a TTL.
type RedisPriceCache struct {
	client *redis.Client
	prefix string
}

// NewRedisPriceCache connects to addr and verifies the connection.
func NewRedisPriceCache(ctx context.Context, addr, password string, db int) (*RedisPriceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPriceCache{client: client, prefix: "price:"}, nil
}

func (c *RedisPriceCache) Get(ctx context.Context, key string) (*EthPrice, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var p EthPrice
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, false, fmt.Errorf("decode cached price: %w", err)
	}
	return &p, true, nil
}

func (c *RedisPriceCache) Set(ctx context.Context, key string, p *EthPrice, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, p, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the redis client.
func (c *RedisPriceCache) Close() error {
	return c.client.Close()
}

// Verify interface compliance at compile time.
var (
	_ PriceCache = (*MemoryPriceCache)(nil)
	_ PriceCache = (*RedisPriceCache)(nil)
)
