// Package redis wraps go-redis/v9 for reading corpus documents stored as
// string keys under a common prefix.
package redis

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
)

const (
	scanCount = 100
	// mgetChunk bounds the keys per MGET so one huge corpus does not become
	// one huge reply.
	mgetChunk = 500
)

type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection with a PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Keys returns the string keys matching the glob pattern, sorted. Keys of
// other types are skipped.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.rdb.ScanType(ctx, 0, pattern, scanCount, "string").Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", pattern, err)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// GetMany returns the values of keys in order, reading them with pipelined
// MGETs. A key deleted since it was listed comes back with ok false.
func (c *Client) GetMany(ctx context.Context, keys []string) (values []string, ok []bool, err error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}
	var cmds []*redis.SliceCmd
	_, err = c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for chunk := range slices.Chunk(keys, mgetChunk) {
			cmds = append(cmds, p.MGet(ctx, chunk...))
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("reading %d keys: %w", len(keys), err)
	}

	values = make([]string, 0, len(keys))
	ok = make([]bool, 0, len(keys))
	for _, cmd := range cmds {
		for _, v := range cmd.Val() {
			s, isString := v.(string)
			values = append(values, s)
			ok = append(ok, isString)
		}
	}
	return values, ok, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// DeleteByPattern removes the string keys matching pattern and returns how
// many were deleted.
func (c *Client) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := c.Keys(ctx, pattern)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	return c.rdb.Del(ctx, keys...).Result()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
