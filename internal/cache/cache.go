package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the cache abstraction services depend on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key starting with prefix. Unlike the other
	// methods it reports backend failures so callers can log them.
	DeleteByPrefix(ctx context.Context, prefix string) error
	// Incr atomically increments the integer at key, starting from zero, and
	// reports backend failures.
	Incr(ctx context.Context, key string) (int64, error)
}

// Options configures the redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialing and every read/write against redis.
	Timeout time.Duration
}

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// Strict returns a view over the same connection that reports them instead.
type Client struct {
	client *redis.Client
	strict bool
}

// Ensure Client implements Store
var _ Store = (*Client)(nil)

// New creates a new Redis client.
func New(o Options) *Client {
	opts := &redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.Timeout,
		ReadTimeout:  o.Timeout,
		WriteTimeout: o.Timeout,
	}
	return &Client{client: redis.NewClient(opts)}
}

// Strict returns a client sharing c's connection pool whose Get, Set and
// Delete return redis errors. Use it where a lost write is not a cache miss.
func (c *Client) Strict() *Client {
	return &Client{client: c.client, strict: true}
}

// fail returns err for strict clients and nil otherwise.
func (c *Client) fail(err error) error {
	if c.strict {
		return err
	}
	return nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		return nil, c.fail(err)
	}
	return res, nil
}

// Set stores value with TTL. Redis errors are ignored unless the client is strict.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		// fail safe: ignore redis errors
		return c.fail(err)
	}
	return nil
}

// Delete removes a key. Redis errors are ignored unless the client is strict.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return c.fail(err)
	}
	return nil
}

// Incr increments the counter at key.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	return c.client.Incr(ctx, key).Result()
}

const scanBatch = 100

// DeleteByPrefix walks the keyspace with SCAN and deletes matching keys in batches.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}
