package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type OrderHistory interface {
	Append(ctx context.Context, order domain.Order) error
}

// OrderPlacer is the order backend. Calls carrying the same CheckoutID must
// resolve to the same order id.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, draft domain.DraftOrder) (uuid.UUID, error)
}

type OrderEventPublisher interface {
	OrderConfirmed(ctx context.Context, order domain.Order) error
	OrderStatusChanged(ctx context.Context, order domain.Order, from domain.OrderStatus) error
}
