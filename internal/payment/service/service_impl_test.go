package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/office562/campbaraisa-sub000/internal/audit/domain"
	auditrepo "github.com/office562/campbaraisa-sub000/internal/audit/repository"
	auditservice "github.com/office562/campbaraisa-sub000/internal/audit/service"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	camperservice "github.com/office562/campbaraisa-sub000/internal/camper/service"
	"github.com/office562/campbaraisa-sub000/internal/clock"
	"github.com/office562/campbaraisa-sub000/internal/config"
	"github.com/office562/campbaraisa-sub000/internal/events"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	feeservice "github.com/office562/campbaraisa-sub000/internal/fee/service"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	invoiceservice "github.com/office562/campbaraisa-sub000/internal/invoice/service"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	"github.com/office562/campbaraisa-sub000/internal/payment/gateway"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubGateway struct {
	sessions int
}

func (g *stubGateway) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	g.sessions++
	id := fmt.Sprintf("cs_test_%d", g.sessions)
	return &gateway.Checkout{SessionID: id, CheckoutURL: "https://pay.test/checkout/" + id}, nil
}

func (g *stubGateway) VerifySignature(payload []byte, headers http.Header) error { return nil }

func (g *stubGateway) ParseConfirmation(payload []byte) (*gateway.Confirmation, error) {
	return nil, gateway.ErrBadPayload
}

type paymentTestEnv struct {
	db        *gorm.DB
	payments  paymentdomain.Service
	invoices  invoicedomain.Service
	campers   camperdomain.Service
	camperID  snowflake.ID
	invoiceID snowflake.ID
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newInvoiceFor creates an invoice with the given total for the env camper.
func (env *paymentTestEnv) newInvoiceFor(t *testing.T, amount string) snowflake.ID {
	t.Helper()
	custom := decimal.RequireFromString(amount)
	inv, err := env.invoices.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CamperID:     env.camperID,
		CustomAmount: &custom,
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv.ID
}

func setupPaymentTestEnv(t *testing.T) *paymentTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&camperdomain.Camper{},
		&feedomain.Fee{},
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
		&auditdomain.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec(`CREATE TABLE billing_events (
		id INTEGER PRIMARY KEY,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}',
		dedupe_key TEXT,
		published INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`).Error; err != nil {
		t.Fatalf("create billing_events: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX ux_billing_events_dedupe ON billing_events(dedupe_key)
		WHERE dedupe_key IS NOT NULL`).Error; err != nil {
		t.Fatalf("create billing_events index: %v", err)
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	fixed := clock.Fixed(testNow)
	cfg := config.Config{
		Billing: config.BillingConfig{
			CardSurchargeRate: decimal.RequireFromString("0.035"),
			DefaultDueInDays:  90,
		},
	}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
	})
	outbox := events.NewOutbox(db, node)
	camperSvc := camperservice.NewService(camperservice.Params{DB: db, Log: log, GenID: node})
	feeSvc := feeservice.NewService(feeservice.Params{
		DB: db, Log: log, GenID: node, AuditSvc: auditSvc, Outbox: outbox,
	})
	invoiceSvc := invoiceservice.NewService(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Cfg: cfg, Clock: fixed,
		CamperSvc: camperSvc, FeeSvc: feeSvc, AuditSvc: auditSvc, Outbox: outbox,
	})
	paymentSvc := NewService(Params{
		DB: db, Log: log, GenID: node, Cfg: cfg, Clock: fixed,
		CamperSvc: camperSvc, AuditSvc: auditSvc, Outbox: outbox,
		Gateway: &stubGateway{},
	})

	camper, err := camperSvc.Create(context.Background(), camperdomain.CreateCamperRequest{
		FirstName: "Dovid", LastName: "Katz",
		ParentFirstName: "Sara", ParentLastName: "Katz",
		ParentEmail: "sara@example.com",
	})
	if err != nil {
		t.Fatalf("create camper: %v", err)
	}

	env := &paymentTestEnv{
		db:       db,
		payments: paymentSvc,
		invoices: invoiceSvc,
		campers:  camperSvc,
		camperID: camper.ID,
	}
	env.invoiceID = env.newInvoiceFor(t, "200")
	return env
}

func TestRecordManualFullPaymentMarksPaid(t *testing.T) {
	env := setupPaymentTestEnv(t)
	ctx := context.Background()

	payment, err := env.payments.RecordManual(ctx, paymentdomain.RecordManualRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.RequireFromString("200"),
		Method:    paymentdomain.MethodCheck,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if payment.Status != paymentdomain.StatusCompleted {
		t.Fatalf("expected completed, got %s", payment.Status)
	}
	if payment.SettledAt == nil {
		t.Fatal("expected settled_at")
	}

	inv, err := env.invoices.GetByID(ctx, env.invoiceID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if inv.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", inv.Status)
	}
	if !inv.PaidAmount.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected paid_amount 200, got %s", inv.PaidAmount)
	}

	camper, err := env.campers.GetByID(ctx, env.camperID)
	if err != nil {
		t.Fatalf("get camper: %v", err)
	}
	if !camper.TotalPaid.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected camper total_paid 200, got %s", camper.TotalPaid)
	}
}

func TestRecordManualPartialPayment(t *testing.T) {
	env := setupPaymentTestEnv(t)
	ctx := context.Background()

	_, err := env.payments.RecordManual(ctx, paymentdomain.RecordManualRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.RequireFromString("80"),
		Method:    paymentdomain.MethodCash,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}

	inv, err := env.invoices.GetByID(ctx, env.invoiceID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if inv.Status != invoicedomain.InvoiceStatusPartial {
		t.Fatalf("expected partial, got %s", inv.Status)
	}
	if bal := invoicedomain.BalanceFor(inv.Amount, inv.PaidAmount); !bal.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("expected balance 120, got %s", bal)
	}
}

func TestRecordManualRejectsCardMethod(t *testing.T) {
	env := setupPaymentTestEnv(t)

	_, err := env.payments.RecordManual(context.Background(), paymentdomain.RecordManualRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.RequireFromString("50"),
		Method:    paymentdomain.MethodCard,
	})
	if !errors.Is(err, paymentdomain.ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestRecordManualRejectsNonPositiveAmount(t *testing.T) {
	env := setupPaymentTestEnv(t)

	_, err := env.payments.RecordManual(context.Background(), paymentdomain.RecordManualRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.Zero,
		Method:    paymentdomain.MethodCheck,
	})
	if !errors.Is(err, paymentdomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestInitiateCardDoesNotCreditUntilConfirmed(t *testing.T) {
	env := setupPaymentTestEnv(t)
	ctx := context.Background()

	checkout, err := env.payments.InitiateCard(ctx, paymentdomain.InitiateCardRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.RequireFromString("120"),
	})
	if err != nil {
		t.Fatalf("initiate card: %v", err)
	}
	if checkout.Payment.Status != paymentdomain.StatusPending {
		t.Fatalf("expected pending, got %s", checkout.Payment.Status)
	}
	if !checkout.Quote.Fee.Equal(decimal.RequireFromString("4.2")) {
		t.Fatalf("expected surcharge 4.20, got %s", checkout.Quote.Fee)
	}
	if checkout.CheckoutURL == "" {
		t.Fatal("expected a checkout url")
	}

	inv, err := env.invoices.GetByID(ctx, env.invoiceID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if !inv.PaidAmount.IsZero() {
		t.Fatalf("expected no credit before confirmation, got %s", inv.PaidAmount)
	}
	if inv.Status != invoicedomain.InvoiceStatusPending {
		t.Fatalf("expected pending, got %s", inv.Status)
	}

	settled, err := env.payments.ConfirmCard(ctx, *checkout.Payment.GatewaySessionID)
	if err != nil {
		t.Fatalf("confirm card: %v", err)
	}
	if settled.Status != paymentdomain.StatusCompleted {
		t.Fatalf("expected completed, got %s", settled.Status)
	}

	inv, err = env.invoices.GetByID(ctx, env.invoiceID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if !inv.PaidAmount.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("expected paid_amount 120, got %s", inv.PaidAmount)
	}
	if inv.Status != invoicedomain.InvoiceStatusPartial {
		t.Fatalf("expected partial, got %s", inv.Status)
	}
}

func TestConfirmCardIsIdempotent(t *testing.T) {
	env := setupPaymentTestEnv(t)
	ctx := context.Background()

	checkout, err := env.payments.InitiateCard(ctx, paymentdomain.InitiateCardRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.RequireFromString("200"),
	})
	if err != nil {
		t.Fatalf("initiate card: %v", err)
	}
	session := *checkout.Payment.GatewaySessionID

	if _, err := env.payments.ConfirmCard(ctx, session); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	replay, err := env.payments.ConfirmCard(ctx, session)
	if !errors.Is(err, paymentdomain.ErrPaymentAlreadySettled) {
		t.Fatalf("expected ErrPaymentAlreadySettled, got %v", err)
	}
	if replay == nil || replay.Status != paymentdomain.StatusCompleted {
		t.Fatal("expected the settled payment back on replay")
	}

	inv, err := env.invoices.GetByID(ctx, env.invoiceID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if !inv.PaidAmount.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected a single credit of 200, got %s", inv.PaidAmount)
	}
	if inv.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", inv.Status)
	}
}

func TestConfirmCardUnknownSession(t *testing.T) {
	env := setupPaymentTestEnv(t)

	_, err := env.payments.ConfirmCard(context.Background(), "cs_missing")
	if !errors.Is(err, paymentdomain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestOverpaymentIsKeptAndAudited(t *testing.T) {
	env := setupPaymentTestEnv(t)
	ctx := context.Background()

	_, err := env.payments.RecordManual(ctx, paymentdomain.RecordManualRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.RequireFromString("250"),
		Method:    paymentdomain.MethodWire,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}

	inv, err := env.invoices.GetByID(ctx, env.invoiceID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if !inv.PaidAmount.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("expected paid_amount 250 kept as-is, got %s", inv.PaidAmount)
	}
	if inv.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", inv.Status)
	}

	var count int64
	err = env.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", auditdomain.ActionReconciliationAnomaly).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one anomaly entry, got %d", count)
	}

	var eventCount int64
	err = env.db.Table("billing_events").
		Where("event_type = ?", events.EventReconciliationAnomaly).
		Count(&eventCount).Error
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected one anomaly event, got %d", eventCount)
	}
}

func TestConfirmCardForDeletedInvoice(t *testing.T) {
	env := setupPaymentTestEnv(t)
	ctx := context.Background()

	checkout, err := env.payments.InitiateCard(ctx, paymentdomain.InitiateCardRequest{
		InvoiceID: env.invoiceID,
		Amount:    decimal.RequireFromString("150"),
	})
	if err != nil {
		t.Fatalf("initiate card: %v", err)
	}
	session := *checkout.Payment.GatewaySessionID

	if err := env.db.Exec(`DELETE FROM invoices WHERE id = ?`, env.invoiceID).Error; err != nil {
		t.Fatalf("delete invoice: %v", err)
	}

	_, err = env.payments.ConfirmCard(ctx, session)
	if !errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}

	// The settlement rolled back, so the payment is still pending and a
	// replayed confirmation would behave the same way.
	payment, err := env.payments.GetByID(ctx, checkout.Payment.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != paymentdomain.StatusPending {
		t.Fatalf("expected pending after failed settlement, got %s", payment.Status)
	}

	var count int64
	err = env.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", auditdomain.ActionReconciliationAnomaly).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one anomaly entry, got %d", count)
	}

	var eventCount int64
	err = env.db.Table("billing_events").
		Where("event_type = ?", events.EventReconciliationAnomaly).
		Count(&eventCount).Error
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected one anomaly event, got %d", eventCount)
	}
}
