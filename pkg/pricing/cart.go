package pricing

import "github.com/shopspring/decimal"

// Line is the pricing view of one cart or order line.
type Line struct {
	VendorKey       string
	OriginalPrice   decimal.Decimal
	DiscountPercent float64
	Quantity        int
}

// UnitPrice is the discounted price of one unit.
func (l Line) UnitPrice() decimal.Decimal {
	return CurrentPrice(l.OriginalPrice, l.DiscountPercent)
}

// LineTotal is current price times quantity.
func LineTotal(l Line) decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineSavings is (original - current) * quantity, floored at zero.
func LineSavings(l Line) decimal.Decimal {
	perUnit := l.OriginalPrice.Sub(l.UnitPrice())
	if !perUnit.IsPositive() {
		return decimal.Zero
	}
	return perUnit.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals aggregates a set of lines.
type Totals struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalSavings   decimal.Decimal `json:"total_savings"`
	OriginalTotal  decimal.Decimal `json:"original_total"`
	ItemCount      int             `json:"item_count"`
	SavingsPercent decimal.Decimal `json:"savings_percent"`
}

// CartTotals sums totals, savings and quantities. SavingsPercent is rounded
// to one decimal and is 0 when the original total is zero.
func CartTotals(lines []Line) Totals {
	totals := Totals{
		TotalAmount:    decimal.Zero,
		TotalSavings:   decimal.Zero,
		OriginalTotal:  decimal.Zero,
		SavingsPercent: decimal.Zero,
	}
	for _, l := range lines {
		totals.TotalAmount = totals.TotalAmount.Add(LineTotal(l))
		totals.TotalSavings = totals.TotalSavings.Add(LineSavings(l))
		totals.ItemCount += l.Quantity
	}
	totals.OriginalTotal = totals.TotalAmount.Add(totals.TotalSavings)
	if totals.OriginalTotal.IsPositive() {
		totals.SavingsPercent = totals.TotalSavings.Div(totals.OriginalTotal).Mul(hundred).Round(1)
	}
	return totals
}

// VendorGroup is a display-only partition of lines.
type VendorGroup struct {
	VendorKey string
	Lines     []int
}

// GroupByVendor partitions line indexes by VendorKey, keeping vendors in
// first-seen order and lines in input order.
func GroupByVendor(lines []Line) []VendorGroup {
	index := map[string]int{}
	var groups []VendorGroup
	for i, l := range lines {
		pos, ok := index[l.VendorKey]
		if !ok {
			pos = len(groups)
			index[l.VendorKey] = pos
			groups = append(groups, VendorGroup{VendorKey: l.VendorKey})
		}
		groups[pos].Lines = append(groups[pos].Lines, i)
	}
	return groups
}
