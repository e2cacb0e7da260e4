package db

import (
	"context"
)

const getValue = `-- name: GetValue :one
SELECT value::text
FROM kv_store
WHERE key = $1
`

func (q *Queries) GetValue(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRow(ctx, getValue, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const putValue = `-- name: PutValue :exec
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at
`

type PutValueParams struct {
	Key   string
	Value string
}

func (q *Queries) PutValue(ctx context.Context, arg PutValueParams) error {
	_, err := q.db.Exec(ctx, putValue, arg.Key, arg.Value)
	return err
}

const lockKey = `-- name: LockKey :exec
SELECT pg_advisory_xact_lock(hashtext($1))
`

// LockKey serializes writers of one key until the surrounding transaction ends.
func (q *Queries) LockKey(ctx context.Context, key string) error {
	_, err := q.db.Exec(ctx, lockKey, key)
	return err
}
