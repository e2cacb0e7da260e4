package cart_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStore_AddItem(t *testing.T) {
	tests := []struct {
		name      string
		qtys      []int
		wantQty   int
		wantError error
		product   func() domain.Product
	}{
		{
			name:    "add new product: ok",
			qtys:    []int{1},
			wantQty: 1,
		},
		{
			name:    "add same product twice increments: ok",
			qtys:    []int{2, 3},
			wantQty: 5,
		},
		{
			name:    "quantity below one is coerced: ok",
			qtys:    []int{0, -4},
			wantQty: 2,
		},
		{
			name: "empty product id: error",
			qtys: []int{1},
			product: func() domain.Product {
				p := randomProduct()
				p.ID = ""
				return p
			},
			wantError: domain.ErrInvalidProduct,
		},
		{
			name: "negative price: error",
			qtys: []int{1},
			product: func() domain.Product {
				p := randomProduct()
				p.Price = decimal.NewFromInt(-1)
				return p
			},
			wantError: domain.ErrInvalidProduct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			store := cart.NewStore(ctx, repository.NewMemoryKV())

			p := randomProduct()
			if tt.product != nil {
				p = tt.product()
			}

			for _, qty := range tt.qtys {
				err := store.AddItem(ctx, p, qty)
				if tt.wantError != nil {
					require.ErrorIs(t, err, tt.wantError)
					assert.True(t, store.IsEmpty())
					return
				}
				require.NoError(t, err)
			}

			assert.Len(t, store.Lines(), 1)
			assert.True(t, store.IsInCart(p.ID))
			assert.Equal(t, tt.wantQty, store.Quantity(p.ID))
		})
	}
}

func TestStore_RemoveItemIsIdempotent(t *testing.T) {
	ctx := t.Context()
	store := cart.NewStore(ctx, repository.NewMemoryKV())
	keep, drop := randomProduct(), randomProduct()

	require.NoError(t, store.AddItem(ctx, keep, 1))
	require.NoError(t, store.AddItem(ctx, drop, 2))

	store.RemoveItem(ctx, drop.ID)
	once := store.Lines()

	store.RemoveItem(ctx, drop.ID)
	assert.Equal(t, once, store.Lines())

	assert.False(t, store.IsInCart(drop.ID))
	assert.Equal(t, 0, store.Quantity(drop.ID))
	assert.True(t, store.IsInCart(keep.ID))
}

func TestStore_SetQuantityZeroRemovesLine(t *testing.T) {
	ctx := t.Context()
	store := cart.NewStore(ctx, repository.NewMemoryKV())
	a, b := randomProduct(), randomProduct()

	require.NoError(t, store.AddItem(ctx, a, 3))
	require.NoError(t, store.AddItem(ctx, b, 2))
	require.Equal(t, 5, store.Totals().ItemCount)

	store.SetQuantity(ctx, a.ID, 0)

	assert.False(t, store.IsInCart(a.ID))
	assert.Equal(t, 2, store.Totals().ItemCount)
}

func TestStore_SetQuantityInput(t *testing.T) {
	ctx := t.Context()
	store := cart.NewStore(ctx, repository.NewMemoryKV())
	p := randomProduct()
	require.NoError(t, store.AddItem(ctx, p, 1))

	assert.True(t, store.SetQuantityInput(ctx, p.ID, "4.7"))
	assert.Equal(t, 4, store.Quantity(p.ID))

	assert.False(t, store.SetQuantityInput(ctx, p.ID, "lots"))
	assert.Equal(t, 4, store.Quantity(p.ID))

	assert.True(t, store.SetQuantityInput(ctx, p.ID, "0.4"))
	assert.False(t, store.IsInCart(p.ID))
}

func TestStore_TotalsScenario(t *testing.T) {
	ctx := t.Context()
	store := cart.NewStore(ctx, repository.NewMemoryKV())
	p := randomProduct()
	p.Price = decimal.RequireFromString("29.99")

	require.NoError(t, store.AddItem(ctx, p, 2))

	totals := store.Totals()
	assert.Equal(t, "59.98", totals.Subtotal.Amount.StringFixed(2))
	assert.Equal(t, "6.00", totals.Tax.Amount.StringFixed(2))
	assert.Equal(t, "65.98", totals.Total.Amount.StringFixed(2))
	assert.Equal(t, 2, totals.ItemCount)
}

func TestStore_PersistAndReload(t *testing.T) {
	ctx := t.Context()
	kv := repository.NewMemoryKV()
	store := cart.NewStore(ctx, kv)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.AddItem(ctx, randomProduct(), gofakeit.IntRange(1, 5)))
	}
	lines := store.Lines()
	store.SetQuantity(ctx, lines[1].ProductID, 9)
	store.RemoveItem(ctx, lines[2].ProductID)

	reloaded := cart.NewStore(ctx, kv)

	diff := cmp.Diff(store.Lines(), reloaded.Lines(), decimalComparer)
	assert.Empty(t, diff)
	assert.True(t, store.Totals().Total.Equal(reloaded.Totals().Total))
	assert.False(t, reloaded.Degraded())
}

func TestStore_ClearPersists(t *testing.T) {
	ctx := t.Context()
	kv := repository.NewMemoryKV()
	store := cart.NewStore(ctx, kv)
	require.NoError(t, store.AddItem(ctx, randomProduct(), 1))

	store.Clear(ctx)

	data, err := kv.Get(ctx, cart.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
	assert.True(t, cart.NewStore(ctx, kv).IsEmpty())
}

func TestStore_LoadMalformedPayload(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantLines int
		wantLog   string
	}{
		{
			name:    "not json: empty cart",
			payload: `{{{`,
			wantLog: "discarding malformed cart payload",
		},
		{
			name:    "wrong shape: empty cart",
			payload: `{"id": "p1"}`,
			wantLog: "discarding malformed cart payload",
		},
		{
			name:      "invalid records dropped: ok",
			payload:   `[{"id":"p1","name":"a","price":"1.50","quantity":2},{"id":"p2","price":"3","quantity":0},{"id":"","price":"1","quantity":1}]`,
			wantLines: 1,
			wantLog:   "dropped invalid cart lines",
		},
		{
			name:      "numeric prices accepted: ok",
			payload:   `[{"id":"p1","name":"a","price":1.5,"quantity":2}]`,
			wantLines: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			kv := repository.NewMemoryKV()
			require.NoError(t, kv.Put(ctx, cart.StorageKey, []byte(tt.payload)))

			core, logs := observer.New(zapcore.WarnLevel)
			store := cart.NewStore(ctx, kv, cart.WithLogger(zap.New(core)))

			assert.Len(t, store.Lines(), tt.wantLines)
			assert.False(t, store.Degraded())
			if tt.wantLog != "" {
				assert.Equal(t, 1, logs.FilterMessage(tt.wantLog).Len())
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestStore_DegradesOnStorageFailure(t *testing.T) {
	ctx := t.Context()
	kv := &flakyKV{KeyValueStore: repository.NewMemoryKV(), putErr: errors.New("quota exceeded")}
	core, logs := observer.New(zapcore.WarnLevel)
	store := cart.NewStore(ctx, kv, cart.WithLogger(zap.New(core)))

	p := randomProduct()
	require.NoError(t, store.AddItem(ctx, p, 1))
	require.NoError(t, store.AddItem(ctx, p, 1))

	assert.True(t, store.Degraded())
	assert.Equal(t, 2, store.Quantity(p.ID))
	assert.Equal(t, 1, kv.puts, "no writes after degrading")
	assert.Equal(t, 1, logs.FilterMessage("cart storage unavailable, continuing in memory").Len())
}

func TestStore_CancelledWriteDoesNotDegrade(t *testing.T) {
	ctx := t.Context()
	kv := &flakyKV{KeyValueStore: repository.NewMemoryKV(), putErr: fmt.Errorf("put: %w", context.DeadlineExceeded)}
	core, logs := observer.New(zapcore.WarnLevel)
	store := cart.NewStore(ctx, kv, cart.WithLogger(zap.New(core)))

	p := randomProduct()
	require.NoError(t, store.AddItem(ctx, p, 1))
	assert.False(t, store.Degraded())
	assert.Equal(t, 1, logs.FilterMessage("cart write abandoned").Len())

	kv.putErr = nil
	require.NoError(t, store.AddItem(ctx, p, 1))
	assert.Equal(t, 2, kv.puts)

	reloaded := cart.NewStore(ctx, kv.KeyValueStore)
	assert.Equal(t, 2, reloaded.Quantity(p.ID))
	assert.Zero(t, logs.FilterMessage("cart storage unavailable, continuing in memory").Len())
}

func TestStore_QuantityNeverWraps(t *testing.T) {
	ctx := t.Context()
	store := cart.NewStore(ctx, repository.NewMemoryKV())
	p := randomProduct()

	require.NoError(t, store.AddItem(ctx, p, math.MaxInt))
	require.NoError(t, store.AddItem(ctx, p, 1))
	assert.Equal(t, domain.MaxQuantity, store.Quantity(p.ID))
	assert.True(t, store.Totals().Total.Amount.IsPositive())

	require.True(t, store.SetQuantityInput(ctx, p.ID, "18446744073709551615"))
	assert.Equal(t, domain.MaxQuantity, store.Quantity(p.ID))

	require.True(t, store.SetQuantityInput(ctx, p.ID, "18446744073709551617"))
	assert.Equal(t, domain.MaxQuantity, store.Quantity(p.ID))
}

func TestStore_DegradesOnLoadFailure(t *testing.T) {
	ctx := t.Context()
	kv := &flakyKV{KeyValueStore: repository.NewMemoryKV(), getErr: errors.New("connection refused")}

	store := cart.NewStore(ctx, kv)
	require.NoError(t, store.AddItem(ctx, randomProduct(), 1))

	assert.True(t, store.Degraded())
	assert.Zero(t, kv.puts)
	assert.Len(t, store.Lines(), 1)
}

func TestStore_NilStorageIsMemoryOnly(t *testing.T) {
	ctx := t.Context()
	store := cart.NewStore(ctx, nil)

	require.NoError(t, store.AddItem(ctx, randomProduct(), 1))
	assert.True(t, store.Degraded())
	assert.Len(t, store.Lines(), 1)
}

func TestStore_Checkout(t *testing.T) {
	t.Run("empty cart: error", func(t *testing.T) {
		store := cart.NewStore(t.Context(), repository.NewMemoryKV())

		called := false
		err := store.Checkout(t.Context(), func(context.Context, domain.CartSnapshot) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, domain.ErrEmptyCart)
		assert.False(t, called)
	})

	t.Run("callback failure leaves cart untouched: error", func(t *testing.T) {
		ctx := t.Context()
		store := cart.NewStore(ctx, repository.NewMemoryKV())
		require.NoError(t, store.AddItem(ctx, randomProduct(), 2))
		before := store.Lines()

		errBackend := errors.New("backend down")
		err := store.Checkout(ctx, func(context.Context, domain.CartSnapshot) error {
			return errBackend
		})
		require.ErrorIs(t, err, errBackend)
		assert.Equal(t, before, store.Lines())
	})

	t.Run("success clears cart and persists: ok", func(t *testing.T) {
		ctx := t.Context()
		kv := repository.NewMemoryKV()
		store := cart.NewStore(ctx, kv)
		require.NoError(t, store.AddItem(ctx, randomProduct(), 2))
		want := store.Lines()

		var got domain.CartSnapshot
		err := store.Checkout(ctx, func(_ context.Context, snapshot domain.CartSnapshot) error {
			got = snapshot
			return nil
		})
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(want, got.Lines, decimalComparer))
		assert.Equal(t, 2, got.Totals.ItemCount)
		assert.True(t, store.IsEmpty())
		assert.True(t, cart.NewStore(ctx, kv).IsEmpty())
	})

	t.Run("mutations wait for the commit: ok", func(t *testing.T) {
		ctx := t.Context()
		store := cart.NewStore(ctx, repository.NewMemoryKV())
		require.NoError(t, store.AddItem(ctx, randomProduct(), 1))

		started := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- store.Checkout(ctx, func(context.Context, domain.CartSnapshot) error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started

		late := randomProduct()
		added := make(chan struct{})
		go func() {
			assert.NoError(t, store.AddItem(ctx, late, 1))
			close(added)
		}()

		select {
		case <-added:
			t.Fatal("add went through while the cart was frozen")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		require.NoError(t, <-done)
		<-added

		lines := store.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, late.ID, lines[0].ProductID)
	})
}

type flakyKV struct {
	port.KeyValueStore
	getErr error
	putErr error
	puts   int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.KeyValueStore.Get(ctx, key)
}

func (f *flakyKV) Put(ctx context.Context, key string, value []byte) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	return f.KeyValueStore.Put(ctx, key, value)
}

var decimalComparer = cmp.Comparer(func(x, y decimal.Decimal) bool {
	return x.Equal(y)
})

func randomProduct() domain.Product {
	return domain.Product{
		ID:       gofakeit.UUID(),
		Name:     gofakeit.ProductName(),
		Price:    decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
		SellerID: gofakeit.UUID(),
		ImageRef: gofakeit.URL(),
	}
}
