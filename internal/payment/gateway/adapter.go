package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
)

var (
	ErrBadSignature = errors.New("gateway_bad_signature")
	ErrBadPayload   = errors.New("gateway_bad_payload")
)

// CheckoutRequest asks the gateway to open a hosted checkout for a card
// payment. Total includes the surcharge.
type CheckoutRequest struct {
	PaymentID string
	InvoiceID string
	Total     decimal.Decimal
}

// Checkout is the gateway's handle for an opened session.
type Checkout struct {
	SessionID   string
	CheckoutURL string
}

// Confirmation is a parsed card-settlement notification.
type Confirmation struct {
	SessionID string
	EventID   string
}

// Adapter is the card gateway boundary. The webhook handler verifies the
// raw body before parsing it; neither step touches the database.
type Adapter interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	VerifySignature(payload []byte, headers http.Header) error
	ParseConfirmation(payload []byte) (*Confirmation, error)
}
