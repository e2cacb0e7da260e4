package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/storefront/internal/migrations"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	if err := migrations.Up(connStr); err != nil {
		return nil, "", fmt.Errorf("migrations.Up: %w", err)
	}

	return postgresContainer, connStr, nil
}

// testKeyValueStore checks the behaviour every port.KeyValueStore shares.
func testKeyValueStore(t *testing.T, store port.KeyValueStore) {
	t.Run("get missing key: not found", func(t *testing.T) {
		_, err := store.Get(t.Context(), gofakeit.UUID())
		require.ErrorIs(t, err, port.ErrKeyNotFound)
	})

	t.Run("get with empty key: error", func(t *testing.T) {
		_, err := store.Get(t.Context(), "")
		require.EqualError(t, err, "key is empty")
	})

	t.Run("put with empty key: error", func(t *testing.T) {
		err := store.Put(t.Context(), "", []byte(`[]`))
		require.EqualError(t, err, "key is empty")
	})

	t.Run("put then get: ok", func(t *testing.T) {
		key := gofakeit.UUID()
		value := randomPayload(t)

		require.NoError(t, store.Put(t.Context(), key, value))

		got, err := store.Get(t.Context(), key)
		require.NoError(t, err)
		assert.JSONEq(t, string(value), string(got))
	})

	t.Run("put overwrites: ok", func(t *testing.T) {
		key := gofakeit.UUID()

		require.NoError(t, store.Put(t.Context(), key, []byte(`[1]`)))
		require.NoError(t, store.Put(t.Context(), key, []byte(`[2]`)))

		got, err := store.Get(t.Context(), key)
		require.NoError(t, err)
		assert.JSONEq(t, `[2]`, string(got))
	})

	t.Run("update missing key sees nil: ok", func(t *testing.T) {
		key := gofakeit.UUID()

		next, err := store.Update(t.Context(), key, func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return []byte(`["a"]`), nil
		})
		require.NoError(t, err)
		assert.JSONEq(t, `["a"]`, string(next))

		got, err := store.Get(t.Context(), key)
		require.NoError(t, err)
		assert.JSONEq(t, `["a"]`, string(got))
	})

	t.Run("update callback error leaves value: error", func(t *testing.T) {
		key := gofakeit.UUID()
		require.NoError(t, store.Put(t.Context(), key, []byte(`["keep"]`)))

		errBoom := errors.New("boom")
		_, err := store.Update(t.Context(), key, func([]byte) ([]byte, error) {
			return nil, errBoom
		})
		require.ErrorIs(t, err, errBoom)

		got, err := store.Get(t.Context(), key)
		require.NoError(t, err)
		assert.JSONEq(t, `["keep"]`, string(got))
	})

	t.Run("concurrent updates are not lost: ok", func(t *testing.T) {
		key := gofakeit.UUID()
		const writers = 4

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := store.Update(t.Context(), key, func(current []byte) ([]byte, error) {
					var values []int
					if current != nil {
						if err := json.Unmarshal(current, &values); err != nil {
							return nil, err
						}
					}
					return json.Marshal(append(values, n))
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := store.Get(t.Context(), key)
		require.NoError(t, err)

		var values []int
		require.NoError(t, json.Unmarshal(got, &values))
		assert.ElementsMatch(t, []int{0, 1, 2, 3}, values)
	})
}

func randomPayload(t *testing.T) []byte {
	t.Helper()

	payload := []map[string]any{
		{"id": gofakeit.UUID(), "name": gofakeit.ProductName(), "quantity": gofakeit.IntRange(1, 5)},
		{"id": gofakeit.UUID(), "name": gofakeit.ProductName(), "quantity": gofakeit.IntRange(1, 5)},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	return data
}
