package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	// OrderStatusConfirmed is the status every order is created with.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing means fulfillment has picked the order up.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped means the parcel left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered is terminal.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled is terminal.
	OrderStatusCancelled OrderStatus = "cancelled"

	// OrderStatusAll is a filter value, never an order status.
	OrderStatusAll OrderStatus = "all"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	return status, status.Valid()
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Progress is the fulfillment percentage shown next to an order.
func (s OrderStatus) Progress() int {
	switch s {
	case OrderStatusConfirmed:
		return 25
	case OrderStatusProcessing:
		return 50
	case OrderStatusShipped:
		return 75
	case OrderStatusDelivered:
		return 100
	default:
		return 0
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

// Order is immutable once created; only Status and UpdatedAt move, and only
// through the order history.
type Order struct {
	ID            uuid.UUID
	CheckoutID    uuid.UUID
	UserID        string
	Items         []CartLine
	Shipping      ShippingInfo
	PaymentMethod PaymentMethod
	Subtotal      Money
	Tax           Money
	ShippingCost  Money
	Total         Money
	Status        OrderStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(id uuid.UUID, draft DraftOrder, now time.Time) Order {
	cur := draft.Totals.Total.Currency

	return Order{
		ID:            id,
		CheckoutID:    draft.CheckoutID,
		UserID:        draft.UserID,
		Items:         CloneLines(draft.Lines),
		Shipping:      draft.Shipping,
		PaymentMethod: draft.Payment.Method,
		Subtotal:      draft.Totals.Subtotal,
		Tax:           draft.Totals.Tax,
		ShippingCost:  ZeroMoney(cur),
		Total:         draft.Totals.Total,
		Status:        OrderStatusConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (o Order) Clone() Order {
	o.Items = CloneLines(o.Items)
	return o
}
