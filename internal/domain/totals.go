package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var taxRate = decimal.RequireFromString("0.10")

// TaxRate is the flat sales tax applied to every cart.
func TaxRate() decimal.Decimal {
	return taxRate
}

// Totals are derived from cart lines and never stored on their own.
type Totals struct {
	Subtotal  Money
	Tax       Money
	Total     Money
	ItemCount int
}

func LineTotal(line CartLine) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

func Subtotal(lines []CartLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line))
	}
	return subtotal
}

func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate).Round(MoneyPlaces)
}

func ItemCount(lines []CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

// ComputeTotals keeps the subtotal exact, rounds tax half-up to cents and
// adds the rounded tax to the subtotal.
func ComputeTotals(lines []CartLine, cur currency.Unit) Totals {
	subtotal := Subtotal(lines)
	tax := Tax(subtotal)

	return Totals{
		Subtotal:  NewMoney(subtotal, cur),
		Tax:       NewMoney(tax, cur),
		Total:     NewMoney(subtotal.Add(tax), cur),
		ItemCount: ItemCount(lines),
	}
}
