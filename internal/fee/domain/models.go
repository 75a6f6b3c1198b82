package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Fee is a reusable named charge selectable when composing an invoice.
// Exactly one fee carries IsDefault and cannot be deleted.
type Fee struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:text;not null" json:"name"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	IsDefault   bool            `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Fee) TableName() string { return "fees" }

type CreateFeeRequest struct {
	Name        string
	Amount      decimal.Decimal
	Description string
}

// UpdateFeeRequest carries partial updates; nil fields are left unchanged.
// The default fee may be edited (its amount changes season to season) even
// though it can never be deleted.
type UpdateFeeRequest struct {
	Name        *string
	Amount      *decimal.Decimal
	Description *string
}
