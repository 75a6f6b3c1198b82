package domain

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// ComputeTotal composes an invoice total from the selected fee amounts, an
// optional custom amount, and up to two discounts applied in sequence. The
// second discount operates on the subtotal the first already reduced. A
// negative intermediate result is clamped to zero before the next step, so
// a discount can never produce a negative invoice.
func ComputeTotal(feeAmounts []decimal.Decimal, custom decimal.Decimal, discounts Discounts) decimal.Decimal {
	total := custom
	for _, amt := range feeAmounts {
		total = total.Add(amt)
	}
	total = applyDiscount(total, discounts.General)
	total = applyDiscount(total, discounts.Lunch)
	return total
}

func applyDiscount(subtotal decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return subtotal
	}
	switch d.Type {
	case DiscountTypePercent:
		subtotal = subtotal.Sub(subtotal.Mul(d.Value).Div(oneHundred))
	default:
		subtotal = subtotal.Sub(d.Value)
	}
	if subtotal.IsNegative() {
		return decimal.Zero
	}
	return subtotal
}

// StatusFor derives the invoice status from its two amounts. Paid means the
// balance is fully covered, including the overpaid case; partial means some
// but not all of the total has been credited.
func StatusFor(amount, paid decimal.Decimal) InvoiceStatus {
	if paid.GreaterThanOrEqual(amount) {
		return InvoiceStatusPaid
	}
	if paid.IsPositive() {
		return InvoiceStatusPartial
	}
	return InvoiceStatusPending
}

// BalanceFor reports the outstanding balance, floored at zero so an
// overpayment never surfaces as a negative amount due.
func BalanceFor(amount, paid decimal.Decimal) decimal.Decimal {
	bal := amount.Sub(paid)
	if bal.IsNegative() {
		return decimal.Zero
	}
	return bal
}
