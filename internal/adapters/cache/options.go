package cache

import "time"

// Option applies a configuration option to the RedisCache.
type Option func(*RedisCache)

// WithTTL sets how long cached results live.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithDB selects the Redis logical database.
func WithDB(db int) Option {
	return func(c *RedisCache) {
		if db >= 0 {
			c.db = db
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithDialTimeout bounds connection attempts.
func WithDialTimeout(d time.Duration) Option {
	return func(c *RedisCache) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}
