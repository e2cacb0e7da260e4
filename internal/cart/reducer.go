package cart

import (
	"github.com/nikolayk812/storefront/internal/domain"
)

// action is one cart mutation. reduce never modifies the slice it is given.
type action interface {
	name() string
}

type addItem struct {
	line domain.CartLine
	qty  int
}

type removeItem struct {
	productID string
}

type setQuantity struct {
	productID string
	qty       int
}

type clearCart struct{}

type loadCart struct {
	lines []domain.CartLine
}

func (addItem) name() string     { return "add_item" }
func (removeItem) name() string  { return "remove_item" }
func (setQuantity) name() string { return "set_quantity" }
func (clearCart) name() string   { return "clear_cart" }
func (loadCart) name() string    { return "load_cart" }

func reduce(lines []domain.CartLine, a action) []domain.CartLine {
	switch a := a.(type) {
	case addItem:
		qty := min(max(a.qty, 1), domain.MaxQuantity)
		if i := indexOf(lines, a.line.ProductID); i >= 0 {
			next := domain.CloneLines(lines)
			next[i].Quantity = addSaturating(next[i].Quantity, qty)
			return next
		}
		line := a.line
		line.Quantity = qty
		return append(domain.CloneLines(lines), line)

	case removeItem:
		next := make([]domain.CartLine, 0, len(lines))
		for _, line := range lines {
			if line.ProductID != a.productID {
				next = append(next, line)
			}
		}
		return next

	case setQuantity:
		if a.qty <= 0 {
			return reduce(lines, removeItem{productID: a.productID})
		}
		i := indexOf(lines, a.productID)
		if i < 0 {
			return lines
		}
		next := domain.CloneLines(lines)
		next[i].Quantity = min(a.qty, domain.MaxQuantity)
		return next

	case clearCart:
		return []domain.CartLine{}

	case loadCart:
		// replaying as adds merges duplicate product ids
		next := []domain.CartLine{}
		for _, line := range a.lines {
			if line.Quantity < 1 || line.ProductID == "" {
				continue
			}
			next = reduce(next, addItem{line: line, qty: line.Quantity})
		}
		return next

	default:
		return lines
	}
}

// addSaturating expects both quantities within [1, MaxQuantity].
func addSaturating(have, qty int) int {
	if have > domain.MaxQuantity-qty {
		return domain.MaxQuantity
	}
	return have + qty
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
