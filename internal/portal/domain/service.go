package domain

import (
	"context"
	"errors"

	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	"github.com/shopspring/decimal"
)

// ErrPortalTokenInvalid covers every failed token lookup. The portal never
// distinguishes a malformed token from an unknown one.
var ErrPortalTokenInvalid = errors.New("portal_token_invalid")

// Parent is the family contact shown at the top of the portal.
type Parent struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// View is the read projection a parent sees: their campers, every invoice,
// every payment, and the family balance rollup.
type View struct {
	Parent       Parent                  `json:"parent"`
	Campers      []camperdomain.Camper   `json:"campers"`
	Invoices     []invoicedomain.Invoice `json:"invoices"`
	Payments     []paymentdomain.Payment `json:"payments"`
	TotalBalance decimal.Decimal         `json:"total_balance"`
	TotalPaid    decimal.Decimal         `json:"total_paid"`
}

// Service serves the parent portal. All access is keyed by the opaque
// portal token; no session state is kept server-side.
type Service interface {
	Load(ctx context.Context, token string) (*View, error)
	// InitiateCardPayment opens a card checkout for an invoice the token's
	// family owns. Invoices outside the family fail the token check, not a
	// permission check.
	InitiateCardPayment(ctx context.Context, token string, req paymentdomain.InitiateCardRequest) (*paymentdomain.CardCheckout, error)
}
