package orders

import (
	"github.com/nikolayk812/storefront/internal/domain"
	"golang.org/x/text/currency"
)

// Summary aggregates a user's order history. Cancelled orders still count
// towards TotalSpent.
type Summary struct {
	OrderCount int
	// TotalSpent is in the history's currency; orders placed in any other
	// currency are totalled separately in OtherSpent.
	TotalSpent    domain.Money
	OtherSpent    map[currency.Unit]domain.Money
	LineItemCount int
	ByStatus      map[domain.OrderStatus]int
}

func (h *History) Summary(userID string) Summary {
	orders := h.ListByUser(userID)

	h.mu.RLock()
	cur := h.currency
	h.mu.RUnlock()

	s := Summary{
		OrderCount: len(orders),
		TotalSpent: domain.ZeroMoney(cur),
		OtherSpent: make(map[currency.Unit]domain.Money),
		ByStatus:   make(map[domain.OrderStatus]int),
	}

	for _, o := range orders {
		s.LineItemCount += len(o.Items)
		s.ByStatus[o.Status]++

		if o.Total.Currency == cur {
			s.TotalSpent = s.TotalSpent.Add(o.Total)
			continue
		}

		spent, ok := s.OtherSpent[o.Total.Currency]
		if !ok {
			spent = domain.ZeroMoney(o.Total.Currency)
		}
		s.OtherSpent[o.Total.Currency] = spent.Add(o.Total)
	}

	return s
}
