// Package money holds the sale arithmetic. Amounts are exact decimals; the
// only rounding happens when an amount is formatted for display.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

// Line is the minimal view of a cart line the calculator needs.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the breakdown shown on the checkout summary.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeTotals applies the discount to the subtotal first and taxes the
// discounted base. Reversing that order changes the tax owed.
func ComputeTotals(lines []Line, discountPercent, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	discount := subtotal.Mul(discountPercent).Div(hundred)
	base := subtotal.Sub(discount)
	tax := base.Mul(taxRate)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          base.Add(tax),
	}
}

// Paid sums the partial payments applied to a sale.
func Paid(amounts []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}

// Remaining is what the customer still owes. A negative value is change due back.
func Remaining(total, paid decimal.Decimal) decimal.Decimal {
	return total.Sub(paid)
}

// Round rounds to whole currency units, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

// Format renders a rounded amount with locale digit grouping, e.g. "1.250.000 ₫"
// for Vietnamese.
func Format(amount decimal.Decimal, tag language.Tag, symbol string) string {
	p := message.NewPrinter(tag)
	out := p.Sprintf("%d", Round(amount).IntPart())
	if symbol == "" {
		return out
	}
	return out + " " + symbol
}
