package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrInvalidCredentials = errors.New("invalid_credentials")

// Admin is a back-office user. Parents never get accounts; they reach the
// portal through per-family tokens instead.
type Admin struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	DisplayName  string       `gorm:"type:text;not null;default:''" json:"display_name"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Admin) TableName() string { return "admins" }
