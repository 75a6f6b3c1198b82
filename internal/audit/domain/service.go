package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Service records and lists immutable activity-trail entries.
type Service interface {
	// AuditLog appends one entry. Actor identity falls back to the request
	// context when actorType is empty.
	AuditLog(ctx context.Context, actorType string, actorID *string, action, targetType string, targetID *string, metadata map[string]any) error
	// AuditLogTx appends one entry inside an existing transaction so the
	// trail commits atomically with the billing write it describes.
	AuditLogTx(ctx context.Context, tx *gorm.DB, actorType string, actorID *string, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidAction     = errors.New("invalid_action")
	ErrInvalidTargetType = errors.New("invalid_target_type")
)
