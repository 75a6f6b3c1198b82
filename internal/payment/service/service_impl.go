package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/office562/campbaraisa-sub000/internal/audit/domain"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	"github.com/office562/campbaraisa-sub000/internal/clock"
	"github.com/office562/campbaraisa-sub000/internal/config"
	"github.com/office562/campbaraisa-sub000/internal/events"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	"github.com/office562/campbaraisa-sub000/internal/observability/metrics"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	"github.com/office562/campbaraisa-sub000/internal/payment/gateway"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// creditRetries bounds the optimistic-lock loop when applying a payment to
// an invoice.
const creditRetries = 5

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Clock     clock.Clock
	CamperSvc camperdomain.Service
	AuditSvc  auditdomain.Service
	Outbox    *events.Outbox
	Gateway   gateway.Adapter
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	cfg       config.Config
	clock     clock.Clock
	camperSvc camperdomain.Service
	auditSvc  auditdomain.Service
	outbox    *events.Outbox
	gateway   gateway.Adapter
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		genID:     p.GenID,
		cfg:       p.Cfg,
		clock:     p.Clock,
		camperSvc: p.CamperSvc,
		auditSvc:  p.AuditSvc,
		outbox:    p.Outbox,
		gateway:   p.Gateway,
	}
}

func (s *Service) Quote(ctx context.Context, base decimal.Decimal) (paymentdomain.SurchargeQuote, error) {
	return paymentdomain.QuoteSurcharge(base, s.cfg.Billing.CardSurchargeRate)
}

func (s *Service) RecordManual(ctx context.Context, req paymentdomain.RecordManualRequest) (*paymentdomain.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}
	if !paymentdomain.ValidMethod(req.Method) || req.Method == paymentdomain.MethodCard {
		return nil, paymentdomain.ErrInvalidMethod
	}

	invoice, err := s.loadInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := &paymentdomain.Payment{
		ID:              s.genID.Generate(),
		InvoiceID:       invoice.ID,
		CamperID:        invoice.CamperID,
		Amount:          req.Amount,
		SurchargeAmount: decimal.Zero,
		Method:          req.Method,
		Status:          paymentdomain.StatusCompleted,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		SettledAt:       &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		if err := s.applyCredit(ctx, tx, payment); err != nil {
			return err
		}
		targetID := payment.ID.String()
		if err := s.auditSvc.AuditLogTx(ctx, tx, "", nil, auditdomain.ActionPaymentRecorded, "payment", &targetID, map[string]any{
			"invoice_id": invoice.ID.String(),
			"amount":     payment.Amount.String(),
			"method":     string(payment.Method),
		}); err != nil {
			return err
		}
		payload := events.PaymentPayload{
			PaymentID: targetID,
			InvoiceID: invoice.ID.String(),
			CamperID:  invoice.CamperID.String(),
			Amount:    payment.Amount.String(),
			Method:    string(payment.Method),
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventPaymentRecorded,
			Payload:   payload.ToMap(),
			DedupeKey: "payment.recorded:" + targetID,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.Billing().IncPaymentRecorded(string(payment.Method))
	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("method", string(payment.Method)),
	)
	return payment, nil
}

func (s *Service) InitiateCard(ctx context.Context, req paymentdomain.InitiateCardRequest) (*paymentdomain.CardCheckout, error) {
	if !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}

	invoice, err := s.loadInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	quote, err := paymentdomain.QuoteSurcharge(req.Amount, s.cfg.Billing.CardSurchargeRate)
	if err != nil {
		return nil, err
	}

	paymentID := s.genID.Generate()
	checkout, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
		PaymentID: paymentID.String(),
		InvoiceID: invoice.ID.String(),
		Total:     quote.Total,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sessionID := checkout.SessionID
	payment := &paymentdomain.Payment{
		ID:               paymentID,
		InvoiceID:        invoice.ID,
		CamperID:         invoice.CamperID,
		Amount:           req.Amount,
		SurchargeAmount:  quote.Fee,
		Method:           paymentdomain.MethodCard,
		Status:           paymentdomain.StatusPending,
		GatewaySessionID: &sessionID,
		CreatedAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		targetID := payment.ID.String()
		if err := s.auditSvc.AuditLogTx(ctx, tx, "", nil, auditdomain.ActionPaymentCardInitiated, "payment", &targetID, map[string]any{
			"invoice_id": invoice.ID.String(),
			"amount":     payment.Amount.String(),
			"surcharge":  quote.Fee.String(),
			"session_id": sessionID,
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentCardInitiated,
			Payload: map[string]any{
				"payment_id": targetID,
				"invoice_id": invoice.ID.String(),
				"amount":     payment.Amount.String(),
				"session_id": sessionID,
			},
			DedupeKey: "payment.card_initiated:" + targetID,
		})
	})
	if err != nil {
		return nil, err
	}

	return &paymentdomain.CardCheckout{
		Payment:     payment,
		Quote:       quote,
		CheckoutURL: checkout.CheckoutURL,
	}, nil
}

func (s *Service) ConfirmCard(ctx context.Context, gatewaySessionID string) (*paymentdomain.Payment, error) {
	sessionID := strings.TrimSpace(gatewaySessionID)
	if sessionID == "" {
		return nil, paymentdomain.ErrPaymentNotFound
	}

	var payment paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		// The guarded update is the idempotency gate: only the first
		// confirmation flips pending to completed; replays match zero rows.
		res := tx.Exec(
			`UPDATE payments SET status = ?, settled_at = ? WHERE gateway_session_id = ? AND status = ?`,
			paymentdomain.StatusCompleted, now, sessionID, paymentdomain.StatusPending,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing paymentdomain.Payment
			err := tx.Where("gateway_session_id = ?", sessionID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return paymentdomain.ErrPaymentNotFound
			}
			if err != nil {
				return err
			}
			payment = existing
			return paymentdomain.ErrPaymentAlreadySettled
		}

		if err := tx.Where("gateway_session_id = ?", sessionID).First(&payment).Error; err != nil {
			return err
		}
		if err := s.applyCredit(ctx, tx, &payment); err != nil {
			return err
		}

		targetID := payment.ID.String()
		if err := s.auditSvc.AuditLogTx(ctx, tx, string(auditdomain.ActorTypeSystem), nil, auditdomain.ActionPaymentSettled, "payment", &targetID, map[string]any{
			"invoice_id": payment.InvoiceID.String(),
			"amount":     payment.Amount.String(),
			"session_id": sessionID,
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentSettled,
			Payload: map[string]any{
				"payment_id": targetID,
				"invoice_id": payment.InvoiceID.String(),
				"amount":     payment.Amount.String(),
				"session_id": sessionID,
			},
			DedupeKey: "payment.settled:" + sessionID,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, paymentdomain.ErrPaymentAlreadySettled):
			metrics.Billing().IncCardConfirmation("duplicate")
			s.log.Info("card confirmation replayed", zap.String("session_id", sessionID))
			return &payment, err
		case errors.Is(err, paymentdomain.ErrPaymentNotFound):
			metrics.Billing().IncCardConfirmation("orphaned")
			s.recordAnomaly(ctx, "payment", nil, "anomaly:orphaned_session:"+sessionID, map[string]any{
				"reason":     "orphaned_card_confirmation",
				"session_id": sessionID,
			})
			return nil, err
		case errors.Is(err, invoicedomain.ErrInvoiceNotFound):
			// The payment exists but its invoice is gone; the credit cannot
			// be applied, so the confirmation is parked for reconciliation.
			metrics.Billing().IncCardConfirmation("missing_invoice")
			paymentID := payment.ID.String()
			s.recordAnomaly(ctx, "payment", &paymentID, "anomaly:missing_invoice:"+sessionID, map[string]any{
				"reason":     "confirmation_for_missing_invoice",
				"invoice_id": payment.InvoiceID.String(),
				"session_id": sessionID,
			})
			return nil, err
		default:
			return nil, err
		}
	}

	metrics.Billing().IncCardConfirmation("settled")
	s.log.Info("card payment settled",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.String("session_id", sessionID),
	)
	return &payment, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentdomain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (s *Service) List(ctx context.Context, filter paymentdomain.ListFilter) ([]paymentdomain.Payment, error) {
	query := s.db.WithContext(ctx).Model(&paymentdomain.Payment{})
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
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
	var payments []paymentdomain.Payment
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(filter.Offset).Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Service) ListByInvoiceIDs(ctx context.Context, invoiceIDs []snowflake.ID) ([]paymentdomain.Payment, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	var payments []paymentdomain.Payment
	err := s.db.WithContext(ctx).
		Where("invoice_id IN ?", invoiceIDs).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Service) loadInvoice(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicedomain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// applyCredit adds the payment amount to the invoice and the camper rollup.
// The invoice write is a compare-and-swap on the version column so two
// concurrent payments cannot lose an update.
func (s *Service) applyCredit(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) error {
	for attempt := 0; attempt < creditRetries; attempt++ {
		var invoice invoicedomain.Invoice
		if err := tx.Where("id = ?", payment.InvoiceID).First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invoicedomain.ErrInvoiceNotFound
			}
			return err
		}

		newPaid := invoice.PaidAmount.Add(payment.Amount)
		newStatus := invoicedomain.StatusFor(invoice.Amount, newPaid)
		res := tx.Exec(
			`UPDATE invoices SET paid_amount = ?, status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
			newPaid, newStatus, s.clock.Now(), invoice.ID, invoice.Version,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}

		if err := s.camperSvc.AddPaidTx(ctx, tx, payment.CamperID, payment.Amount); err != nil {
			return err
		}

		if newPaid.GreaterThan(invoice.Amount) {
			// Overpayment is kept as-is for a human to reconcile, never
			// clamped or reversed here.
			metrics.Billing().IncReconciliationAnomaly()
			invoiceID := invoice.ID.String()
			s.log.Warn("invoice overpaid",
				zap.String("invoice_id", invoiceID),
				zap.String("amount", invoice.Amount.String()),
				zap.String("paid_amount", newPaid.String()),
			)
			if err := s.auditSvc.AuditLogTx(ctx, tx, string(auditdomain.ActorTypeSystem), nil, auditdomain.ActionReconciliationAnomaly, "invoice", &invoiceID, map[string]any{
				"reason":      "overpayment",
				"amount":      invoice.Amount.String(),
				"paid_amount": newPaid.String(),
			}); err != nil {
				return err
			}
			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				Type: events.EventReconciliationAnomaly,
				Payload: map[string]any{
					"reason":      "overpayment",
					"invoice_id":  invoiceID,
					"payment_id":  payment.ID.String(),
					"amount":      invoice.Amount.String(),
					"paid_amount": newPaid.String(),
				},
				DedupeKey: "anomaly:overpayment:" + payment.ID.String(),
			}); err != nil {
				return err
			}
		}
		return nil
	}
	return paymentdomain.ErrInvoiceConflict
}

// recordAnomaly writes an audit entry and an outbox event outside any caller
// transaction, for conditions observed while rejecting a request.
func (s *Service) recordAnomaly(ctx context.Context, targetType string, targetID *string, dedupeKey string, metadata map[string]any) {
	metrics.Billing().IncReconciliationAnomaly()
	if err := s.auditSvc.AuditLog(ctx, string(auditdomain.ActorTypeSystem), nil, auditdomain.ActionReconciliationAnomaly, targetType, targetID, metadata); err != nil {
		s.log.Error("audit anomaly", zap.Error(err))
	}
	if err := s.outbox.Publish(ctx, events.Event{
		Type:      events.EventReconciliationAnomaly,
		Payload:   metadata,
		DedupeKey: dedupeKey,
	}); err != nil {
		s.log.Error("publish anomaly", zap.Error(err))
	}
}
