package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Camper is the roster entry billing references. The billing core owns only
// the balance rollups; the rest of the record belongs to the camp office.
type Camper struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	FirstName        string          `gorm:"type:text;not null" json:"first_name"`
	LastName         string          `gorm:"type:text;not null" json:"last_name"`
	ParentFirstName  string          `gorm:"type:text;not null;default:''" json:"parent_first_name"`
	ParentLastName   string          `gorm:"type:text;not null;default:''" json:"parent_last_name"`
	ParentEmail      string          `gorm:"type:text;not null;default:''" json:"parent_email"`
	ParentPhone      string          `gorm:"type:text;not null;default:''" json:"parent_phone"`
	PortalToken      string          `gorm:"type:text;not null;uniqueIndex" json:"-"`
	TotalBalance     decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"total_balance"`
	TotalPaid        decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"total_paid"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Camper) TableName() string { return "campers" }

type CreateCamperRequest struct {
	FirstName       string
	LastName        string
	ParentFirstName string
	ParentLastName  string
	ParentEmail     string
	ParentPhone     string
}
