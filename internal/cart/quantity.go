package cart

import (
	"strings"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	maxQuantity = decimal.NewFromInt(domain.MaxQuantity)
	minQuantity = maxQuantity.Neg()
)

// ParseQuantity reads a quantity typed by a shopper. Fractions are floored
// and the result is clamped to ±domain.MaxQuantity; ok is false when raw is
// not a number at all.
func ParseQuantity(raw string) (qty int, ok bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}

	d = decimal.Min(decimal.Max(d.Floor(), minQuantity), maxQuantity)

	return int(d.IntPart()), true
}
