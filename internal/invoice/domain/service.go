package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCamper    = errors.New("invoice_invalid_camper")
	ErrInvalidAmount    = errors.New("invoice_invalid_amount")
	ErrInvalidDiscount  = errors.New("invoice_invalid_discount")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrNothingToInvoice = errors.New("invoice_nothing_to_invoice")
)

// CreateInvoiceRequest describes an invoice to compose. At least one fee or
// a custom amount must be present.
type CreateInvoiceRequest struct {
	CamperID     snowflake.ID
	FeeIDs       []snowflake.ID
	CustomAmount *decimal.Decimal
	Description  string
	DueDate      *time.Time
	Discounts    Discounts
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	CamperID *snowflake.ID
	Status   *InvoiceStatus
	Limit    int
	Offset   int
}

// Service composes invoices from the fee catalog and maintains the ledger.
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	ListByCamperIDs(ctx context.Context, camperIDs []snowflake.ID) ([]Invoice, error)
	// MarkReminderSent records today's reminder on the invoice and advances
	// next_reminder_date to the following slot in the schedule.
	MarkReminderSent(ctx context.Context, id snowflake.ID, sentOn time.Time) (*Invoice, error)
	// DueForReminder returns unpaid invoices whose next reminder date has
	// arrived, oldest first, capped at limit.
	DueForReminder(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)
}
