package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity caps a single cart line. Adds saturate at it.
const MaxQuantity = math.MaxInt32

// Product is what the catalog hands over when something is added to the cart.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	SellerID string
	ImageRef string
}

type CartLine struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	SellerID  string
	ImageRef  string
}

// CartSnapshot is a frozen copy of the cart taken at order submission.
type CartSnapshot struct {
	Lines  []CartLine
	Totals Totals
}

func NewCartLine(p Product, quantity int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		SellerID:  p.SellerID,
		ImageRef:  p.ImageRef,
	}
}

func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
