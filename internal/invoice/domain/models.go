package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus is derived from the paid/owed relationship and never trusted
// independently of those two amounts.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountTypeFixed   DiscountType = "fixed"
	DiscountTypePercent DiscountType = "percent"
)

// Discount reduces the running subtotal during invoice composition.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Discounts records both discount slots applied at composition time.
// They stack sequentially: Lunch applies to the subtotal General already
// reduced, not to the original subtotal.
type Discounts struct {
	General *Discount `json:"general,omitempty"`
	Lunch   *Discount `json:"lunch,omitempty"`
}

// Invoice is a billing record owed by a camper's family for a fixed total,
// paid down over time. Amount is fixed at creation; PaidAmount mutates only
// through the payment recorder.
type Invoice struct {
	ID                snowflake.ID               `gorm:"primaryKey" json:"id"`
	CamperID          snowflake.ID               `gorm:"not null;index" json:"camper_id"`
	Amount            decimal.Decimal            `gorm:"type:numeric;not null" json:"amount"`
	PaidAmount        decimal.Decimal            `gorm:"type:numeric;not null;default:0" json:"paid_amount"`
	Description       string                     `gorm:"type:text;not null;default:''" json:"description"`
	Status            InvoiceStatus              `gorm:"type:text;not null;default:'pending';index" json:"status"`
	DueDate           *time.Time                 `gorm:"type:date" json:"due_date,omitempty"`
	FeesApplied       datatypes.JSONSlice[int64] `gorm:"not null;default:'[]'" json:"fees_applied"`
	DiscountsApplied  datatypes.JSONType[Discounts] `gorm:"column:discounts" json:"discounts"`
	ReminderSentDates datatypes.JSONSlice[string] `gorm:"not null;default:'[]'" json:"reminder_sent_dates"`
	NextReminderDate  *time.Time                 `gorm:"type:date;index" json:"next_reminder_date,omitempty"`
	// Version guards the paid_amount read-modify-write against lost updates.
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
