package kv

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries when another client writes
// the same key between WATCH and EXEC.
const maxUpdateAttempts = 20

// Retry delays double from minRetryDelay up to maxRetryDelay, jittered so
// competing writers spread out.
const (
	minRetryDelay = time.Millisecond
	maxRetryDelay = 100 * time.Millisecond
)

// ErrContention is returned when an update kept losing to concurrent writers.
var ErrContention = errors.New("kv: too many concurrent writers")

// Redis is a Store shared between processes through a Redis server.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a store over a connected client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the value for key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return redisGet(ctx, r.client, key)
}

// Set overwrites the value for key with no expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys walks the keyspace with SCAN.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, "*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning keys: %w", err)
	}
	return keys, nil
}

// Update applies fn in a WATCH/MULTI transaction, retrying when the key
// changed underneath it.
func (r *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, ok, err := redisGet(ctx, tx, key)
		if err != nil {
			return err
		}

		next, err := fn(current, ok)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, retryDelay(attempt)); err != nil {
				return fmt.Errorf("updating %s: %w", key, err)
			}
		}

		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("updating %s: %w", key, err)
		}
		return nil
	}

	return fmt.Errorf("updating %s: %w", key, ErrContention)
}

// retryDelay returns a delay in [d/2, d) where d doubles with each attempt.
func retryDelay(attempt int) time.Duration {
	d := maxRetryDelay
	if attempt < 8 {
		d = min(minRetryDelay<<attempt, maxRetryDelay)
	}
	return d/2 + rand.N(d/2)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func redisGet(ctx context.Context, c stringGetter, key string) ([]byte, bool, error) {
	v, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}
