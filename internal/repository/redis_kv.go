package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/storefront/internal/port"
	"github.com/redis/go-redis/v9"
)

const redisUpdateRetries = 5

type redisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV stores every key under prefix, e.g. "storefront:shopping_cart".
func NewRedisKV(client *redis.Client, prefix string) port.KeyValueStore {
	return &redisKV{
		client: client,
		prefix: prefix,
	}
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("client.Get: %w", err)
	}

	return data, nil
}

func (r *redisKV) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func (r *redisKV) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	rk := r.redisKey(key)
	var next []byte

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("tx.Get: %w", err)
		}

		next, err = fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			// key changed under WATCH, retry with the fresh value
			continue
		}
		if err != nil {
			return nil, err
		}
		return next, nil
	}

	return nil, fmt.Errorf("update %q: gave up after %d optimistic retries", key, redisUpdateRetries)
}

func (r *redisKV) redisKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}
