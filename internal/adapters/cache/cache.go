// Package cache stores recommendation results keyed by snapshot version and
// query. A new snapshot version changes every key, so entries of replaced
// snapshots simply expire.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/types"
)

const (
	defaultTTL         = 5 * time.Minute
	defaultPrefix      = "gigmatch:rec"
	defaultDialTimeout = 2 * time.Second
)

// Cache stores recommendation results.
type Cache interface {
	// Get returns the cached result for key. The bool is false on a miss.
	Get(ctx context.Context, key string) (types.Result, bool, error)

	// Set stores res under key.
	Set(ctx context.Context, key string, res types.Result) error

	Close() error
}

// Key derives the cache key of q against the snapshot version. Skills are
// compared as a set because the query vector ignores their order.
func Key(version string, q model.Query) string {
	skills := model.CleanSkills(q.Skills)
	slices.Sort(skills)

	h := xxhash.New()
	for _, s := range skills {
		_, _ = h.WriteString(s)
		_, _ = h.WriteString("\x00")
	}
	_, _ = h.WriteString("\x01")
	if q.Budget != nil {
		_, _ = h.WriteString(strconv.FormatFloat(*q.Budget, 'g', -1, 64))
	}
	_, _ = h.WriteString("\x01" + q.Timeline + "\x01" + q.ClientID + "\x01" + q.Filter)

	return version + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	client      *redis.Client
	ttl         time.Duration
	db          int
	prefix      string
	dialTimeout time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, opts ...Option) (*RedisCache, error) {
	c := &RedisCache{
		ttl:         defaultTTL,
		prefix:      defaultPrefix,
		dialTimeout: defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          c.db,
		DialTimeout: c.dialTimeout,
	})
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrUnavailable, addr, err)
	}
	return c, nil
}

// Get returns the cached result for key.
func (c *RedisCache) Get(ctx context.Context, key string) (types.Result, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+":"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Result{}, false, nil
	}
	if err != nil {
		return types.Result{}, false, fmt.Errorf("%w: get: %w", ErrUnavailable, err)
	}
	var res types.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return types.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

// Set stores res under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, res types.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+":"+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %w", ErrUnavailable, err)
	}
	return nil
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop is a Cache that never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) (types.Result, bool, error) {
	return types.Result{}, false, nil
}

// Set discards res.
func (Nop) Set(context.Context, string, types.Result) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = Nop{}
)
