package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount         = errors.New("payment_invalid_amount")
	ErrInvalidMethod         = errors.New("payment_invalid_method")
	ErrPaymentNotFound       = errors.New("payment_not_found")
	ErrPaymentAlreadySettled = errors.New("payment_already_settled")
	ErrInvoiceConflict       = errors.New("payment_invoice_conflict")
)

// RecordManualRequest records an out-of-band payment (check, wire, cash).
type RecordManualRequest struct {
	InvoiceID snowflake.ID
	Amount    decimal.Decimal
	Method    Method
	Notes     string
}

// InitiateCardRequest opens a gateway checkout for a card payment. Amount is
// what the invoice will be credited once the gateway confirms; the surcharge
// is charged on top.
type InitiateCardRequest struct {
	InvoiceID snowflake.ID
	Amount    decimal.Decimal
}

// CardCheckout is the gateway handoff for an initiated card payment.
type CardCheckout struct {
	Payment     *Payment
	Quote       SurchargeQuote
	CheckoutURL string
}

// ListFilter narrows payment listings.
type ListFilter struct {
	InvoiceID *snowflake.ID
	CamperID  *snowflake.ID
	Status    *Status
	Limit     int
	Offset    int
}

// Service records payments against invoices and keeps the invoice ledger,
// camper rollups, and payment rows consistent.
type Service interface {
	// RecordManual settles immediately and credits the invoice in the same
	// transaction.
	RecordManual(ctx context.Context, req RecordManualRequest) (*Payment, error)
	// InitiateCard creates a pending payment and a gateway checkout. No
	// credit is applied until ConfirmCard.
	InitiateCard(ctx context.Context, req InitiateCardRequest) (*CardCheckout, error)
	// ConfirmCard settles a pending card payment by gateway session id.
	// The first confirmation credits the invoice; replays return
	// ErrPaymentAlreadySettled without any further credit.
	ConfirmCard(ctx context.Context, gatewaySessionID string) (*Payment, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Payment, error)
	List(ctx context.Context, filter ListFilter) ([]Payment, error)
	ListByInvoiceIDs(ctx context.Context, invoiceIDs []snowflake.ID) ([]Payment, error)
	// Quote computes the card surcharge for a chosen amount using the
	// configured rate.
	Quote(ctx context.Context, base decimal.Decimal) (SurchargeQuote, error)
}
