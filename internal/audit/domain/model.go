package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeAdmin  ActorType = "admin"
	ActorTypeParent ActorType = "parent"
	ActorTypeSystem ActorType = "system"
)

// Billing and roster actions recorded in the trail.
const (
	ActionInvoiceCreated        = "invoice.created"
	ActionPaymentRecorded       = "payment.recorded"
	ActionPaymentCardInitiated  = "payment.card_initiated"
	ActionPaymentSettled        = "payment.settled"
	ActionReminderSent          = "reminder.sent"
	ActionFeeCreated            = "fee.created"
	ActionFeeDeleted            = "fee.deleted"
	ActionCamperCreated         = "camper.created"
	ActionReconciliationAnomaly = "billing.reconciliation_anomaly"
)

// AuditLog captures an immutable record of a billing or roster action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"not null;default:'{}'"`
	IPAddress  *string           `gorm:"type:text"`
	UserAgent  *string           `gorm:"type:text"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
