package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/office562/campbaraisa-sub000/internal/audit/domain"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	"github.com/office562/campbaraisa-sub000/internal/clock"
	"github.com/office562/campbaraisa-sub000/internal/config"
	"github.com/office562/campbaraisa-sub000/internal/events"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	"github.com/office562/campbaraisa-sub000/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Clock     clock.Clock
	CamperSvc camperdomain.Service
	FeeSvc    feedomain.Service
	AuditSvc  auditdomain.Service
	Outbox    *events.Outbox
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	cfg       config.Config
	clock     clock.Clock
	camperSvc camperdomain.Service
	feeSvc    feedomain.Service
	auditSvc  auditdomain.Service
	outbox    *events.Outbox
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		cfg:       p.Cfg,
		clock:     p.Clock,
		camperSvc: p.CamperSvc,
		feeSvc:    p.FeeSvc,
		auditSvc:  p.AuditSvc,
		outbox:    p.Outbox,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	if req.CamperID == 0 {
		return nil, invoicedomain.ErrInvalidCamper
	}
	camper, err := s.camperSvc.GetByID(ctx, req.CamperID)
	if err != nil {
		if errors.Is(err, camperdomain.ErrCamperNotFound) {
			return nil, invoicedomain.ErrInvalidCamper
		}
		return nil, err
	}

	if len(req.FeeIDs) == 0 && (req.CustomAmount == nil || req.CustomAmount.IsZero()) {
		return nil, invoicedomain.ErrNothingToInvoice
	}
	if err := validateDiscount(req.Discounts.General); err != nil {
		return nil, err
	}
	if err := validateDiscount(req.Discounts.Lunch); err != nil {
		return nil, err
	}

	custom := decimal.Zero
	if req.CustomAmount != nil {
		custom = *req.CustomAmount
		if custom.IsNegative() && !s.cfg.Billing.AllowNegativeCustomAmount {
			return nil, invoicedomain.ErrInvalidAmount
		}
	}

	var fees []feedomain.Fee
	if len(req.FeeIDs) > 0 {
		fees, err = s.feeSvc.GetByIDs(ctx, req.FeeIDs)
		if err != nil {
			return nil, err
		}
	}

	feeAmounts := make([]decimal.Decimal, 0, len(fees))
	feeNames := make([]string, 0, len(fees))
	feeIDs := make([]int64, 0, len(fees))
	for _, fee := range fees {
		feeAmounts = append(feeAmounts, fee.Amount)
		feeNames = append(feeNames, fee.Name)
		feeIDs = append(feeIDs, int64(fee.ID))
	}

	total := invoicedomain.ComputeTotal(feeAmounts, custom, req.Discounts)
	if !total.IsPositive() {
		return nil, invoicedomain.ErrInvalidAmount
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		if len(feeNames) > 0 {
			description = strings.Join(feeNames, ", ")
		} else {
			description = "Custom charge"
		}
	}

	now := s.clock.Now()
	dueDate := req.DueDate
	if dueDate == nil {
		d := now.AddDate(0, 0, s.cfg.Billing.DefaultDueInDays)
		dueDate = &d
	}

	invoice := &invoicedomain.Invoice{
		ID:                s.genID.Generate(),
		CamperID:          camper.ID,
		Amount:            total,
		PaidAmount:        decimal.Zero,
		Description:       description,
		Status:            invoicedomain.StatusFor(total, decimal.Zero),
		DueDate:           dueDate,
		FeesApplied:       datatypes.NewJSONSlice(feeIDs),
		DiscountsApplied:  datatypes.NewJSONType(req.Discounts),
		ReminderSentDates: datatypes.NewJSONSlice([]string{}),
		NextReminderDate:  invoicedomain.NextReminderDate(*dueDate, nil, now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		if err := s.camperSvc.AddBalanceTx(ctx, tx, camper.ID, total); err != nil {
			return err
		}
		targetID := invoice.ID.String()
		if err := s.auditSvc.AuditLogTx(ctx, tx, "", nil, auditdomain.ActionInvoiceCreated, "invoice", &targetID, map[string]any{
			"camper_id": camper.ID.String(),
			"amount":    total.String(),
		}); err != nil {
			return err
		}
		payload := events.InvoicePayload{
			InvoiceID: targetID,
			CamperID:  camper.ID.String(),
			Amount:    total.String(),
			DueDate:   dueDate.Format("2006-01-02"),
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventInvoiceCreated,
			Payload:   payload.ToMap(),
			DedupeKey: "invoice.created:" + targetID,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.Billing().IncInvoiceCreated()
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("camper_id", camper.ID.String()),
		zap.String("amount", total.String()),
	)
	return invoice, nil
}

func validateDiscount(d *invoicedomain.Discount) error {
	if d == nil {
		return nil
	}
	if d.Value.IsNegative() {
		return invoicedomain.ErrInvalidDiscount
	}
	switch d.Type {
	case invoicedomain.DiscountTypeFixed, invoicedomain.DiscountTypePercent:
		return nil
	default:
		return invoicedomain.ErrInvalidDiscount
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicedomain.ErrInvoiceNotFound
		}
		return nil, err
	}
	deriveStatus(&invoice)
	return &invoice, nil
}

func (s *Service) List(ctx context.Context, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	query := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{})
	if filter.CamperID != nil {
		query = query.Where("camper_id = ?", *filter.CamperID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	var invoices []invoicedomain.Invoice
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(filter.Offset).Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		deriveStatus(&invoices[i])
	}
	return invoices, nil
}

func (s *Service) ListByCamperIDs(ctx context.Context, camperIDs []snowflake.ID) ([]invoicedomain.Invoice, error) {
	if len(camperIDs) == 0 {
		return nil, nil
	}
	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("camper_id IN ?", camperIDs).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		deriveStatus(&invoices[i])
	}
	return invoices, nil
}

// deriveStatus recomputes the status from the stored amounts so a read never
// reports a stale column.
func deriveStatus(invoice *invoicedomain.Invoice) {
	invoice.Status = invoicedomain.StatusFor(invoice.Amount, invoice.PaidAmount)
}

func (s *Service) MarkReminderSent(ctx context.Context, id snowflake.ID, sentOn time.Time) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invoicedomain.ErrInvoiceNotFound
			}
			return err
		}
		if invoice.DueDate == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		sentDate := sentOn.UTC().Format("2006-01-02")
		sent := []string(invoice.ReminderSentDates)
		already := false
		for _, d := range sent {
			if d == sentDate {
				already = true
				break
			}
		}
		if !already {
			sent = append(sent, sentDate)
		}
		next := invoicedomain.NextReminderDate(*invoice.DueDate, sent, sentOn)

		invoice.ReminderSentDates = datatypes.NewJSONSlice(sent)
		invoice.NextReminderDate = next
		invoice.UpdatedAt = s.clock.Now()
		if err := tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"reminder_sent_dates": invoice.ReminderSentDates,
				"next_reminder_date":  invoice.NextReminderDate,
				"updated_at":          invoice.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		targetID := invoice.ID.String()
		if err := s.auditSvc.AuditLogTx(ctx, tx, string(auditdomain.ActorTypeSystem), nil, auditdomain.ActionReminderSent, "invoice", &targetID, map[string]any{
			"sent_on": sentDate,
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventReminderSent,
			Payload: map[string]any{
				"invoice_id": targetID,
				"sent_on":    sentDate,
			},
			DedupeKey: "reminder.sent:" + targetID + ":" + sentDate,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.Billing().IncReminderSent()
	deriveStatus(&invoice)
	return &invoice, nil
}

func (s *Service) DueForReminder(ctx context.Context, asOf time.Time, limit int) ([]invoicedomain.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("status <> ?", invoicedomain.InvoiceStatusPaid).
		Where("next_reminder_date IS NOT NULL AND next_reminder_date <= ?", asOf.UTC()).
		Order("next_reminder_date, id").
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		deriveStatus(&invoices[i])
	}
	return invoices, nil
}
