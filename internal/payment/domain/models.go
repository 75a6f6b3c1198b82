package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Method is how a payment was tendered. Card payments settle asynchronously
// through the gateway; everything else settles the moment it is recorded.
type Method string

const (
	MethodCard  Method = "card"
	MethodCheck Method = "check"
	MethodWire  Method = "wire"
	MethodCash  Method = "cash"
	MethodOther Method = "other"
)

// Status tracks settlement. Only completed payments have credited the
// invoice; a pending card payment carries no credit yet.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Payment records money applied (or in flight) toward an invoice. Amount is
// what the invoice is credited; SurchargeAmount is the card pass-through fee
// charged on top and never credited.
type Payment struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID        snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	CamperID         snowflake.ID    `gorm:"not null" json:"camper_id"`
	Amount           decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	SurchargeAmount  decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"surcharge_amount"`
	Method           Method          `gorm:"type:text;not null" json:"method"`
	Status           Status          `gorm:"type:text;not null;default:'pending'" json:"status"`
	GatewaySessionID *string         `gorm:"type:text" json:"gateway_session_id,omitempty"`
	Notes            string          `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	SettledAt        *time.Time      `json:"settled_at,omitempty"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// IsManual reports whether the method settles immediately on record.
func (m Method) IsManual() bool { return m != MethodCard }

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m Method) bool {
	switch m {
	case MethodCard, MethodCheck, MethodWire, MethodCash, MethodOther:
		return true
	}
	return false
}
