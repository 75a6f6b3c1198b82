package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/office562/campbaraisa-sub000/internal/audit/domain"
	"github.com/office562/campbaraisa-sub000/internal/events"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service
	Outbox   *events.Outbox
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	auditSvc auditdomain.Service
	outbox   *events.Outbox
}

func NewService(p Params) feedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("fee.service"),
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
		outbox:   p.Outbox,
	}
}

func (s *Service) List(ctx context.Context) ([]feedomain.Fee, error) {
	var fees []feedomain.Fee
	err := s.db.WithContext(ctx).Order("is_default DESC, created_at").Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]feedomain.Fee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var fees []feedomain.Fee
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&fees).Error
	if err != nil {
		return nil, err
	}
	if len(fees) != len(ids) {
		return nil, feedomain.ErrFeeNotFound
	}
	return fees, nil
}

func (s *Service) Create(ctx context.Context, req feedomain.CreateFeeRequest) (*feedomain.Fee, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, feedomain.ErrInvalidName
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, feedomain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	fee := &feedomain.Fee{
		ID:          s.genID.Generate(),
		Name:        name,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		IsDefault:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fee).Error; err != nil {
			return err
		}
		targetID := fee.ID.String()
		if err := s.auditSvc.AuditLogTx(ctx, tx, "", nil, auditdomain.ActionFeeCreated, "fee", &targetID, map[string]any{
			"name":   fee.Name,
			"amount": fee.Amount.String(),
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventFeeCreated,
			Payload:   map[string]any{"fee_id": targetID, "name": fee.Name, "amount": fee.Amount.String()},
			DedupeKey: "fee.created:" + targetID,
		})
	})
	if err != nil {
		return nil, err
	}
	return fee, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req feedomain.UpdateFeeRequest) (*feedomain.Fee, error) {
	var fee feedomain.Fee
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&fee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, feedomain.ErrFeeNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, feedomain.ErrInvalidName
		}
		fee.Name = name
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() || req.Amount.IsZero() {
			return nil, feedomain.ErrInvalidAmount
		}
		fee.Amount = *req.Amount
	}
	if req.Description != nil {
		fee.Description = strings.TrimSpace(*req.Description)
	}
	fee.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(&fee).Error; err != nil {
		return nil, err
	}
	return &fee, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	var fee feedomain.Fee
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&fee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return feedomain.ErrFeeNotFound
		}
		return err
	}
	if fee.IsDefault {
		return feedomain.ErrProtectedFee
	}

	// Invoices that already reference this fee keep their recorded totals;
	// the catalog entry alone goes away.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&feedomain.Fee{}, "id = ?", id).Error; err != nil {
			return err
		}
		targetID := id.String()
		if err := s.auditSvc.AuditLogTx(ctx, tx, "", nil, auditdomain.ActionFeeDeleted, "fee", &targetID, map[string]any{
			"name": fee.Name,
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventFeeDeleted,
			Payload:   map[string]any{"fee_id": targetID, "name": fee.Name},
			DedupeKey: "fee.deleted:" + targetID,
		})
	})
}
