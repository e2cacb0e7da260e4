package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// StorageKey is where the cart lines live in durable storage.
const StorageKey = "shopping_cart"

var _ port.Cart = (*Store)(nil)

// Store owns the shopping cart. Every mutation is written through to durable
// storage; once a write fails the store keeps working from memory only for
// the rest of the session.
type Store struct {
	mu       sync.Mutex
	kv       port.KeyValueStore
	log      *zap.Logger
	currency currency.Unit

	lines    []domain.CartLine
	degraded bool
}

type Option func(*Store)

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func WithCurrency(cur currency.Unit) Option {
	return func(s *Store) {
		s.currency = cur
	}
}

// NewStore rehydrates the cart from kv. A nil kv gives a memory-only cart.
func NewStore(ctx context.Context, kv port.KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		log:      zap.NewNop(),
		currency: currency.USD,
		lines:    []domain.CartLine{},
		degraded: kv == nil,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.load(ctx)

	return s
}

func (s *Store) AddItem(ctx context.Context, p domain.Product, qty int) error {
	if p.ID == "" {
		return fmt.Errorf("%w: product id is empty", domain.ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price[%s] is negative", domain.ErrInvalidProduct, p.Price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatch(ctx, addItem{line: domain.NewCartLine(p, 0), qty: qty})
	return nil
}

// RemoveItem is a no-op for products that are not in the cart.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatch(ctx, removeItem{productID: productID})
}

// SetQuantity removes the line when qty <= 0.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatch(ctx, setQuantity{productID: productID, qty: qty})
}

// SetQuantityInput applies free-text quantity input; input that is not a
// number is ignored and reported through the return value.
func (s *Store) SetQuantityInput(ctx context.Context, productID, raw string) bool {
	qty, ok := ParseQuantity(raw)
	if !ok {
		s.log.Debug("ignoring non-numeric quantity",
			zap.String("product_id", productID),
			zap.String("input", raw))
		return false
	}

	s.SetQuantity(ctx, productID, qty)
	return true
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatch(ctx, clearCart{})
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.CloneLines(s.lines)
}

func (s *Store) Totals() domain.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.ComputeTotals(s.lines, s.currency)
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.lines) == 0
}

func (s *Store) IsInCart(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return indexOf(s.lines, productID) >= 0
}

// Quantity returns 0 for products that are not in the cart.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.lines, productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

// Degraded reports whether the cart stopped writing to durable storage.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.degraded
}

// Checkout holds the cart lock from snapshot to clear. fn must not call back
// into the Store.
func (s *Store) Checkout(ctx context.Context, fn func(ctx context.Context, snapshot domain.CartSnapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return domain.ErrEmptyCart
	}

	snapshot := domain.CartSnapshot{
		Lines:  domain.CloneLines(s.lines),
		Totals: domain.ComputeTotals(s.lines, s.currency),
	}

	if err := fn(ctx, snapshot); err != nil {
		return err
	}

	s.dispatch(ctx, clearCart{})
	return nil
}

// dispatch must be called with s.mu held.
func (s *Store) dispatch(ctx context.Context, a action) {
	s.lines = reduce(s.lines, a)
	s.persist(ctx, a)
}

func (s *Store) persist(ctx context.Context, a action) {
	if s.degraded {
		return
	}

	data, err := encodeLines(s.lines)
	if err == nil {
		err = s.kv.Put(ctx, StorageKey, data)
	}
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// the next write stores the whole cart again
		s.log.Warn("cart write abandoned",
			zap.String("action", a.name()),
			zap.Error(err))
	default:
		s.degrade(&domain.PersistenceError{Op: "put", Key: StorageKey, Err: err},
			zap.String("action", a.name()))
	}
}

func (s *Store) load(ctx context.Context) {
	if s.degraded {
		return
	}

	data, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, port.ErrKeyNotFound) {
		return
	}
	if err != nil {
		s.degrade(&domain.PersistenceError{Op: "get", Key: StorageKey, Err: err})
		return
	}

	lines, dropped, err := decodeLines(data)
	if err != nil {
		s.log.Warn("discarding malformed cart payload", zap.String("key", StorageKey), zap.Error(err))
		return
	}
	if dropped > 0 {
		s.log.Warn("dropped invalid cart lines", zap.String("key", StorageKey), zap.Int("dropped", dropped))
	}

	s.lines = reduce(nil, loadCart{lines: lines})
}

func (s *Store) degrade(err error, fields ...zap.Field) {
	s.degraded = true
	s.log.Warn("cart storage unavailable, continuing in memory",
		append(fields, zap.Error(err))...)
}
