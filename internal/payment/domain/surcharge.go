package domain

import "github.com/shopspring/decimal"

// SurchargeQuote itemizes the card processing fee for a chosen payment
// amount. The fee is computed on the amount the parent chose to pay, not on
// the invoice balance.
type SurchargeQuote struct {
	Base  decimal.Decimal `json:"base"`
	Rate  decimal.Decimal `json:"rate"`
	Fee   decimal.Decimal `json:"fee"`
	Total decimal.Decimal `json:"total"`
}

// QuoteSurcharge computes the card fee for base at rate, rounded to cents.
func QuoteSurcharge(base, rate decimal.Decimal) (SurchargeQuote, error) {
	if !base.IsPositive() {
		return SurchargeQuote{}, ErrInvalidAmount
	}
	fee := base.Mul(rate).Round(2)
	return SurchargeQuote{
		Base:  base,
		Rate:  rate,
		Fee:   fee,
		Total: base.Add(fee),
	}, nil
}
