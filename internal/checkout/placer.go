package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	_ port.OrderPlacer = (*SimulatedPlacer)(nil)
	_ port.OrderPlacer = (*BreakerPlacer)(nil)
)

// SimulatedPlacer stands in for an order backend. It waits latency before
// answering and returns the same order id for repeated calls with one
// CheckoutID.
type SimulatedPlacer struct {
	latency time.Duration

	mu     sync.Mutex
	placed map[uuid.UUID]uuid.UUID
}

func NewSimulatedPlacer(latency time.Duration) *SimulatedPlacer {
	return &SimulatedPlacer{
		latency: latency,
		placed:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (p *SimulatedPlacer) PlaceOrder(ctx context.Context, draft domain.DraftOrder) (uuid.UUID, error) {
	if draft.CheckoutID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("checkout id is empty")
	}
	if len(draft.Lines) == 0 {
		return uuid.Nil, domain.ErrEmptyCart
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		case <-timer.C:
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.placed[draft.CheckoutID]; ok {
		return id, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("uuid.NewV7: %w", err)
	}
	p.placed[draft.CheckoutID] = id

	return id, nil
}

type BreakerSettings struct {
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// BreakerPlacer fails fast with gobreaker.ErrOpenState while the order
// backend keeps failing.
type BreakerPlacer struct {
	next port.OrderPlacer
	cb   *gobreaker.CircuitBreaker[uuid.UUID]
}

func NewBreakerPlacer(next port.OrderPlacer, settings BreakerSettings, log *zap.Logger) *BreakerPlacer {
	if log == nil {
		log = zap.NewNop()
	}
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}

	cb := gobreaker.NewCircuitBreaker[uuid.UUID](gobreaker.Settings{
		Name:    "place-order",
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// a shopper giving up or an empty cart says nothing about backend health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, domain.ErrEmptyCart)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &BreakerPlacer{next: next, cb: cb}
}

func (p *BreakerPlacer) PlaceOrder(ctx context.Context, draft domain.DraftOrder) (uuid.UUID, error) {
	return p.cb.Execute(func() (uuid.UUID, error) {
		return p.next.PlaceOrder(ctx, draft)
	})
}

func (p *BreakerPlacer) State() gobreaker.State {
	return p.cb.State()
}
