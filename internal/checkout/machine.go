package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

// Machine drives one checkout from Shipping to Confirmation. A Machine is
// single use: start a new one for the next checkout.
type Machine struct {
	mu      sync.Mutex
	cart    port.Cart
	history port.OrderHistory
	placer  port.OrderPlacer
	log     *zap.Logger
	now     func() time.Time

	userID     string
	checkoutID uuid.UUID
	stage      Stage
	shipping   domain.ShippingInfo
	payment    domain.PaymentInfo
	order      *domain.Order
	submitting bool
	abandoned  bool
}

type Option func(*Machine)

func WithLogger(log *zap.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// New enters checkout for userID. The shipping email is pre-filled with
// email. Entering with an empty cart fails with domain.ErrEmptyCart.
func New(
	cart port.Cart,
	history port.OrderHistory,
	placer port.OrderPlacer,
	userID, email string,
	opts ...Option,
) (*Machine, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is empty")
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	m := &Machine{
		cart:       cart,
		history:    history,
		placer:     placer,
		log:        zap.NewNop(),
		now:        time.Now,
		userID:     userID,
		checkoutID: uuid.New(),
		stage:      StageShipping,
		shipping: domain.ShippingInfo{
			Email:   email,
			Country: domain.DefaultCountry,
		},
		payment: domain.PaymentInfo{
			Method: domain.PaymentMethodCreditCard,
		},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.log = m.log.With(zap.Stringer("checkout_id", m.checkoutID), zap.String("user_id", userID))

	return m, nil
}

func (m *Machine) CheckoutID() uuid.UUID {
	return m.checkoutID
}

func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stage
}

// Submitting reports whether an order submission is in flight.
func (m *Machine) Submitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.submitting
}

// Shipping returns the shipping draft; it is not available after Abandon.
func (m *Machine) Shipping() (domain.ShippingInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.abandoned {
		return domain.ShippingInfo{}, false
	}
	return m.shipping, true
}

func (m *Machine) SetShipping(info domain.ShippingInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable("set shipping", StageShipping); err != nil {
		return err
	}

	if strings.TrimSpace(info.Country) == "" {
		info.Country = domain.DefaultCountry
	}
	m.shipping = info

	return nil
}

// Payment returns the payment draft once the checkout reached the Payment
// stage.
func (m *Machine) Payment() (domain.PaymentInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.abandoned || m.stage < StagePayment {
		return domain.PaymentInfo{}, false
	}
	return m.payment, true
}

func (m *Machine) SetPayment(info domain.PaymentInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable("set payment", StagePayment); err != nil {
		return err
	}

	m.payment = info

	return nil
}

// Review returns what would be ordered right now. Only available at Review.
func (m *Machine) Review() (domain.DraftOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable("review", StageReview); err != nil {
		return domain.DraftOrder{}, err
	}

	return domain.DraftOrder{
		CheckoutID: m.checkoutID,
		UserID:     m.userID,
		Lines:      m.cart.Lines(),
		Totals:     m.cart.Totals(),
		Shipping:   m.shipping,
		Payment:    m.payment,
	}, nil
}

// Advance validates the current stage and moves to the next one. Validation
// failures are returned as domain.ValidationErrors and keep the stage.
func (m *Machine) Advance() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.usable(); err != nil {
		return err
	}

	var errs domain.ValidationErrors
	switch m.stage {
	case StageShipping:
		errs = domain.ValidateShipping(m.shipping)
	case StagePayment:
		errs = domain.ValidatePayment(m.payment)
	default:
		return &domain.TransitionError{Op: "advance", From: m.stage.String()}
	}
	if len(errs) > 0 {
		return errs
	}

	m.moveTo(m.stage + 1)
	return nil
}

// Retreat goes back one stage without validation. It does nothing at
// Shipping or Confirmation.
func (m *Machine) Retreat() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.usable(); err != nil {
		return err
	}
	if m.stage == StageShipping || m.stage.IsTerminal() {
		return nil
	}

	m.moveTo(m.stage - 1)
	return nil
}

// SubmitOrder places the order from Review. The cart is frozen while the
// order is placed and recorded, and cleared only when both succeed. Failures
// are returned as *domain.SubmissionError and keep the machine at Review.
func (m *Machine) SubmitOrder(ctx context.Context) (domain.Order, error) {
	m.mu.Lock()
	if err := m.usable(); err != nil {
		m.mu.Unlock()
		return domain.Order{}, err
	}
	if m.stage != StageReview {
		from := m.stage
		m.mu.Unlock()
		return domain.Order{}, &domain.TransitionError{Op: "submit order", From: from.String()}
	}
	if errs := domain.ValidatePayment(m.payment); len(errs) > 0 {
		m.mu.Unlock()
		return domain.Order{}, errs
	}

	m.submitting = true
	shipping, payment := m.shipping, m.payment
	m.mu.Unlock()

	var order domain.Order
	err := m.cart.Checkout(ctx, func(ctx context.Context, snapshot domain.CartSnapshot) error {
		draft := domain.DraftOrder{
			CheckoutID: m.checkoutID,
			UserID:     m.userID,
			Lines:      snapshot.Lines,
			Totals:     snapshot.Totals,
			Shipping:   shipping,
			Payment:    payment,
		}

		id, err := m.placer.PlaceOrder(ctx, draft)
		if err != nil {
			return fmt.Errorf("placer.PlaceOrder: %w", err)
		}

		order = domain.NewOrder(id, draft, m.now())
		if err := m.history.Append(ctx, order); err != nil {
			return fmt.Errorf("history.Append: %w", err)
		}

		return nil
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.submitting = false
	if err != nil {
		m.log.Warn("order submission failed", zap.Error(err))
		return domain.Order{}, &domain.SubmissionError{Err: err}
	}

	m.order = &order
	m.moveTo(StageConfirmation)
	m.log.Info("order confirmed",
		zap.Stringer("order_id", order.ID),
		zap.Stringer("total", order.Total))

	return order.Clone(), nil
}

// Order returns the confirmed order once the checkout is complete.
func (m *Machine) Order() (domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.order == nil {
		return domain.Order{}, false
	}
	return m.order.Clone(), true
}

// Abandon discards the draft. The cart and order history are left as they
// are; every later call on the machine fails with domain.ErrCheckoutAbandoned.
func (m *Machine) Abandon() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.usable(); err != nil {
		return err
	}
	if m.stage.IsTerminal() {
		return &domain.TransitionError{Op: "abandon", From: m.stage.String()}
	}

	m.abandoned = true
	m.shipping = domain.ShippingInfo{}
	m.payment = domain.PaymentInfo{}
	m.log.Info("checkout abandoned", zap.Stringer("stage", m.stage))

	return nil
}

// usable must be called with m.mu held.
func (m *Machine) usable() error {
	if m.abandoned {
		return domain.ErrCheckoutAbandoned
	}
	if m.submitting {
		return domain.ErrSubmissionInProgress
	}
	return nil
}

func (m *Machine) editable(op string, stage Stage) error {
	if err := m.usable(); err != nil {
		return err
	}
	if m.stage != stage {
		return &domain.TransitionError{Op: op, From: m.stage.String()}
	}
	return nil
}

func (m *Machine) moveTo(next Stage) {
	m.log.Debug("checkout stage changed",
		zap.Stringer("from", m.stage),
		zap.Stringer("to", next))
	m.stage = next
}
