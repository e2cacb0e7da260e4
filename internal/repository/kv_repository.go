package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/port"
)

type kvRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewKV(pool *pgxpool.Pool) port.KeyValueStore {
	return &kvRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewKVWithTx(tx pgx.Tx) port.KeyValueStore {
	return &kvRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *kvRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	value, err := r.q.GetValue(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("q.GetValue: %w", err)
	}

	return []byte(value), nil
}

func (r *kvRepository) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	err := r.q.PutValue(ctx, db.PutValueParams{
		Key:   key,
		Value: string(value),
	})
	if err != nil {
		return fmt.Errorf("q.PutValue: %w", err)
	}

	return nil
}

func (r *kvRepository) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) ([]byte, error) {
		if err := q.LockKey(ctx, key); err != nil {
			return nil, fmt.Errorf("q.LockKey: %w", err)
		}

		var current []byte
		value, err := q.GetValue(ctx, key)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return nil, fmt.Errorf("q.GetValue: %w", err)
		default:
			current = []byte(value)
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}

		err = q.PutValue(ctx, db.PutValueParams{
			Key:   key,
			Value: string(next),
		})
		if err != nil {
			return nil, fmt.Errorf("q.PutValue: %w", err)
		}

		return next, nil
	})
}
