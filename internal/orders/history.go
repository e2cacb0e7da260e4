package orders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// StorageKey holds the orders of all users in one log.
const StorageKey = "user_orders"

var _ port.OrderHistory = (*History)(nil)

// History is the persisted log of placed orders. Orders are only ever
// appended; status changes go through UpdateStatus and the transition table.
type History struct {
	mu        sync.RWMutex
	kv        port.KeyValueStore
	log       *zap.Logger
	publisher port.OrderEventPublisher
	now       func() time.Time
	currency  currency.Unit

	orders   []domain.Order
	degraded bool
}

type Option func(*History)

func WithLogger(log *zap.Logger) Option {
	return func(h *History) {
		h.log = log
	}
}

// WithPublisher announces appended orders and status changes. Publishing is
// best effort: failures are logged and never undo the change.
func WithPublisher(p port.OrderEventPublisher) Option {
	return func(h *History) {
		h.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *History) {
		h.now = now
	}
}

// WithCurrency sets the currency of summaries for users without orders.
func WithCurrency(cur currency.Unit) Option {
	return func(h *History) {
		h.currency = cur
	}
}

// NewHistory loads the order log from kv. A nil kv gives a memory-only log.
func NewHistory(ctx context.Context, kv port.KeyValueStore, opts ...Option) *History {
	h := &History{
		kv:       kv,
		log:      zap.NewNop(),
		now:      time.Now,
		currency: currency.USD,
		degraded: kv == nil,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.load(ctx)

	return h
}

// Append records a placed order. A storage failure is returned as a
// *domain.PersistenceError so the caller can keep the cart and retry; it does
// not switch the history to memory only.
func (h *History) Append(ctx context.Context, order domain.Order) error {
	if order.ID == uuid.Nil {
		return fmt.Errorf("order id is empty")
	}
	order = order.Clone()

	h.mu.Lock()
	err := h.mutate(ctx, "append", func(orders []domain.Order) ([]domain.Order, error) {
		if indexOf(orders, order.ID) >= 0 {
			return nil, fmt.Errorf("order[%s]: %w", order.ID, domain.ErrDuplicateOrder)
		}
		return append(slices.Clone(orders), order), nil
	})
	h.mu.Unlock()

	// an order that did not reach storage is not recorded
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		h.log.Warn("order not recorded", zap.Stringer("order_id", order.ID), zap.Error(err))
	}
	if err != nil {
		return err
	}

	h.log.Info("order recorded",
		zap.Stringer("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Stringer("total", order.Total))

	if h.publisher != nil {
		if err := h.publisher.OrderConfirmed(ctx, order); err != nil {
			h.log.Warn("publish order confirmed", zap.Stringer("order_id", order.ID), zap.Error(err))
		}
	}

	return nil
}

// UpdateStatus moves an order along confirmed → processing → shipped →
// delivered, or cancels it while confirmed or processing. A storage failure
// switches the history to memory only; a cancelled ctx does not.
func (h *History) UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (domain.Order, error) {
	var (
		updated domain.Order
		from    domain.OrderStatus
	)

	apply := func(orders []domain.Order) ([]domain.Order, error) {
		i := indexOf(orders, orderID)
		if i < 0 {
			return nil, fmt.Errorf("order[%s]: %w", orderID, domain.ErrOrderNotFound)
		}

		from = orders[i].Status
		if !from.CanTransitionTo(next) {
			return nil, &domain.TransitionError{Op: "update status", From: from.String(), To: next.String()}
		}

		out := slices.Clone(orders)
		out[i].Status = next
		out[i].UpdatedAt = h.now()
		updated = out[i].Clone()
		return out, nil
	}

	h.mu.Lock()
	err := h.mutate(ctx, "update status", apply)
	var perr *domain.PersistenceError
	if errors.As(err, &perr) && !transient(err) {
		h.degrade(perr)
		err = h.mutate(ctx, "update status", apply)
	}
	h.mu.Unlock()
	if err != nil {
		return domain.Order{}, err
	}

	h.log.Info("order status changed",
		zap.Stringer("order_id", orderID),
		zap.Stringer("from", from),
		zap.Stringer("to", next))

	if h.publisher != nil {
		if err := h.publisher.OrderStatusChanged(ctx, updated, from); err != nil {
			h.log.Warn("publish order status changed", zap.Stringer("order_id", orderID), zap.Error(err))
		}
	}

	return updated, nil
}

func (h *History) Get(orderID uuid.UUID) (domain.Order, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	i := indexOf(h.orders, orderID)
	if i < 0 {
		return domain.Order{}, fmt.Errorf("order[%s]: %w", orderID, domain.ErrOrderNotFound)
	}

	return h.orders[i].Clone(), nil
}

// ListByUser returns the user's orders, newest first.
func (h *History) ListByUser(userID string) []domain.Order {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []domain.Order
	for _, o := range h.orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}

	slices.SortStableFunc(out, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})

	return out
}

// FilterByStatus narrows ListByUser; domain.OrderStatusAll keeps everything.
func (h *History) FilterByStatus(userID string, status domain.OrderStatus) ([]domain.Order, error) {
	if status != domain.OrderStatusAll && !status.Valid() {
		return nil, fmt.Errorf("status[%s] is not valid", status)
	}

	orders := h.ListByUser(userID)
	if status == domain.OrderStatusAll {
		return orders, nil
	}

	var out []domain.Order
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}

	return out, nil
}

// Degraded reports whether the history stopped writing to durable storage.
func (h *History) Degraded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.degraded
}

// rejectedError carries a domain rejection out of a storage update so it is
// not mistaken for a storage failure.
type rejectedError struct {
	err error
}

func (e *rejectedError) Error() string {
	return e.err.Error()
}

// mutate applies fn to the stored log, or to the in-memory log once storage
// has failed. A failed storage write comes back as a *domain.PersistenceError
// and leaves both logs unchanged. Must be called with h.mu held.
func (h *History) mutate(ctx context.Context, op string, fn func(orders []domain.Order) ([]domain.Order, error)) error {
	if h.degraded {
		next, err := fn(h.orders)
		if err != nil {
			return err
		}
		h.orders = next
		return nil
	}

	var next []domain.Order
	_, err := h.kv.Update(ctx, StorageKey, func(current []byte) ([]byte, error) {
		stored := h.decode(current)

		var err error
		next, err = fn(stored)
		if err != nil {
			return nil, &rejectedError{err: err}
		}

		return encodeOrders(next)
	})

	var rejected *rejectedError
	switch {
	case err == nil:
		h.orders = next
		return nil
	case errors.As(err, &rejected):
		return rejected.err
	default:
		return &domain.PersistenceError{Op: op, Key: StorageKey, Err: err}
	}
}

func (h *History) load(ctx context.Context) {
	if h.degraded {
		return
	}

	data, err := h.kv.Get(ctx, StorageKey)
	if errors.Is(err, port.ErrKeyNotFound) {
		return
	}
	if err != nil {
		h.degrade(&domain.PersistenceError{Op: "get", Key: StorageKey, Err: err})
		return
	}

	h.orders = h.decode(data)
}

func (h *History) decode(data []byte) []domain.Order {
	orders, dropped, err := decodeOrders(data)
	if err != nil {
		h.log.Warn("discarding malformed order log", zap.String("key", StorageKey), zap.Error(err))
		return nil
	}
	if dropped > 0 {
		h.log.Warn("dropped invalid orders", zap.String("key", StorageKey), zap.Int("dropped", dropped))
	}

	return orders
}

func (h *History) degrade(err error) {
	h.degraded = true
	h.log.Warn("order storage unavailable, continuing in memory", zap.Error(err))
}

// transient errors come from the caller giving up, not from storage.
func transient(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func indexOf(orders []domain.Order, id uuid.UUID) int {
	return slices.IndexFunc(orders, func(o domain.Order) bool {
		return o.ID == id
	})
}
