// Package pricing computes offer prices, box discounts and cart totals with
// exact decimal arithmetic.
package pricing

import (
	"strconv"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CurrentPrice applies discountPercent to original. Non-positive discounts
// return original unchanged. The percent is expected in [0, 100] and is not
// clamped here.
func CurrentPrice(original decimal.Decimal, discountPercent float64) decimal.Decimal {
	if discountPercent <= 0 {
		return original
	}
	return original.Mul(decimal.NewFromInt(1).Sub(percentDecimal(discountPercent).Div(hundred)))
}

// percentDecimal converts through the shortest decimal representation so
// 12.3 becomes exactly 12.3 rather than its binary expansion.
func percentDecimal(p float64) decimal.Decimal {
	d, err := decimal.NewFromString(strconv.FormatFloat(p, 'f', -1, 64))
	if err != nil {
		return decimal.NewFromFloat(p)
	}
	return d
}

// BoxDiscountPercent is (original - selling) / original * 100 rounded to one
// decimal place, or 0 when originalValue is not positive.
func BoxDiscountPercent(originalValue, sellingPrice decimal.Decimal) decimal.Decimal {
	if !originalValue.IsPositive() {
		return decimal.Zero
	}
	return originalValue.Sub(sellingPrice).Div(originalValue).Mul(hundred).Round(1)
}

// Badge labels for recommendation cards.
const (
	BadgeHot      = "hot"
	BadgeDiscount = "discount"

	hotDiscountThreshold = 50
)

// Badge returns BadgeHot for discounts of at least 50%, BadgeDiscount for
// any other positive discount and "" otherwise.
func Badge(discountPercent float64) string {
	switch {
	case discountPercent >= hotDiscountThreshold:
		return BadgeHot
	case discountPercent > 0:
		return BadgeDiscount
	default:
		return ""
	}
}
