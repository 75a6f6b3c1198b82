package reminder

import (
	"context"
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
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	invoiceservice "github.com/office562/campbaraisa-sub000/internal/invoice/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupReminderTest(t *testing.T, now time.Time) (*gorm.DB, invoicedomain.Service, camperdomain.Service, *Worker) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&camperdomain.Camper{},
		&invoicedomain.Invoice{},
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

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	fixed := clock.Fixed(now)
	cfg := config.Config{Billing: config.BillingConfig{DefaultDueInDays: 90}}

	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepo.Provide()})
	outbox := events.NewOutbox(db, node)
	camperSvc := camperservice.NewService(camperservice.Params{DB: db, Log: log, GenID: node})
	invoiceSvc := invoiceservice.NewService(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Cfg: cfg, Clock: fixed,
		CamperSvc: camperSvc, AuditSvc: auditSvc, Outbox: outbox,
	})

	worker := NewWorker(Params{
		Log: log, Clock: fixed, InvoiceSvc: invoiceSvc,
		Config: Config{BatchSize: 10, PollInterval: time.Minute},
	})
	return db, invoiceSvc, camperSvc, worker
}

func TestProcessBatchSendsDueReminders(t *testing.T) {
	// The first reminder slot for a 90-day due date is the creation day.
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, invoiceSvc, camperSvc, worker := setupReminderTest(t, now)
	ctx := context.Background()

	camper, err := camperSvc.Create(ctx, camperdomain.CreateCamperRequest{
		FirstName: "Avi", LastName: "Gross",
	})
	if err != nil {
		t.Fatalf("create camper: %v", err)
	}
	amount := decimal.RequireFromString("350")
	inv, err := invoiceSvc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CamperID:     camper.ID,
		CustomAmount: &amount,
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	processed, err := worker.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 reminder, got %d", processed)
	}

	updated, err := invoiceSvc.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if len(updated.ReminderSentDates) != 1 {
		t.Fatalf("expected one sent date, got %d", len(updated.ReminderSentDates))
	}
	if updated.NextReminderDate == nil || !updated.NextReminderDate.After(now) {
		t.Fatalf("expected a future next reminder, got %v", updated.NextReminderDate)
	}

	// The same batch run must not send the same reminder twice.
	processed, err = worker.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected no reminders on replay, got %d", processed)
	}
}

func TestProcessBatchSkipsPaidInvoices(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	db, invoiceSvc, camperSvc, worker := setupReminderTest(t, now)
	ctx := context.Background()

	camper, err := camperSvc.Create(ctx, camperdomain.CreateCamperRequest{
		FirstName: "Benny", LastName: "Roth",
	})
	if err != nil {
		t.Fatalf("create camper: %v", err)
	}
	amount := decimal.RequireFromString("100")
	inv, err := invoiceSvc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CamperID:     camper.ID,
		CustomAmount: &amount,
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	// Settle the invoice in place; paid invoices never remind even when a
	// reminder date is still recorded.
	if err := db.Exec(
		`UPDATE invoices SET paid_amount = amount, status = ? WHERE id = ?`,
		invoicedomain.InvoiceStatusPaid, inv.ID,
	).Error; err != nil {
		t.Fatalf("settle invoice: %v", err)
	}

	processed, err := worker.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected no reminders for paid invoice, got %d", processed)
	}
}
