package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

type Cart interface {
	Lines() []domain.CartLine
	Totals() domain.Totals
	IsEmpty() bool
	// Checkout freezes the cart, hands a snapshot to fn and clears the cart
	// only if fn succeeds. No mutation can run between snapshot and clear.
	Checkout(ctx context.Context, fn func(ctx context.Context, snapshot domain.CartSnapshot) error) error
}
