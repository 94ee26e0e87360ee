package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BookCache keeps serialized book detail payloads in redis.
// A nil *BookCache or one without a client is a no-op, so the API runs
// without redis.
//
// Every book also has a version counter that Invalidate bumps. Readers take
// the version before loading from the database and Set refuses to store a
// payload once the version has moved, so a load that raced a write is never
// cached.
type BookCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBookCache connects to redisURL and verifies the connection.
func NewBookCache(redisURL, password string, ttl time.Duration) (*BookCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewBookCacheWithClient(rdb, ttl), nil
}

func NewBookCacheWithClient(client *redis.Client, ttl time.Duration) *BookCache {
	return &BookCache{client: client, ttl: ttl}
}

func bookKey(id int64) string {
	return fmt.Sprintf("book:%d", id)
}

func versionKey(id int64) string {
	return fmt.Sprintf("book:%d:version", id)
}

func (c *BookCache) enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached payload; ok is false on a miss.
func (c *BookCache) Get(ctx context.Context, id int64) (payload []byte, ok bool, err error) {
	if !c.enabled() {
		return nil, false, nil
	}
	payload, err = c.client.Get(ctx, bookKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Version returns the book's invalidation counter, zero when it was never
// invalidated.
func (c *BookCache) Version(ctx context.Context, id int64) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	v, err := c.client.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores payload when the book's version still equals version. stored is
// false when the book was invalidated in between.
func (c *BookCache) Set(ctx context.Context, id, version int64, payload []byte) (stored bool, err error) {
	if !c.enabled() {
		return false, nil
	}

	key := versionKey(id)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, bookKey(id), payload, c.ttl)
			return nil
		})
		stored = err == nil
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate drops the cached payloads of the given books and bumps their
// versions.
func (c *BookCache) Invalidate(ctx context.Context, ids ...int64) error {
	if !c.enabled() || len(ids) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Incr(ctx, versionKey(id))
			pipe.Del(ctx, bookKey(id))
		}
		return nil
	})
	return err
}

func (c *BookCache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}
