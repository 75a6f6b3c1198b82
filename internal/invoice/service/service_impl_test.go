package service

import (
	"context"
	"errors"
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
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	invoices  invoicedomain.Service
	campers   camperdomain.Service
	fees      feedomain.Service
	clock     clock.Clock
	camperID  snowflake.ID
	campFeeID snowflake.ID
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupInvoiceTestEnv(t *testing.T) *testEnv {
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

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	fixed := clock.Fixed(testNow)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	outbox := events.NewOutbox(db, node)
	camperSvc := camperservice.NewService(camperservice.Params{DB: db, Log: log, GenID: node})
	feeSvc := feeservice.NewService(feeservice.Params{
		DB: db, Log: log, GenID: node, AuditSvc: auditSvc, Outbox: outbox,
	})

	cfg := config.Config{
		Billing: config.BillingConfig{
			CardSurchargeRate: decimal.RequireFromString("0.035"),
			DefaultDueInDays:  90,
		},
	}
	invoiceSvc := NewService(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Cfg:       cfg,
		Clock:     fixed,
		CamperSvc: camperSvc,
		FeeSvc:    feeSvc,
		AuditSvc:  auditSvc,
		Outbox:    outbox,
	})

	camper, err := camperSvc.Create(context.Background(), camperdomain.CreateCamperRequest{
		FirstName: "Rivka", LastName: "Stein",
		ParentFirstName: "Malka", ParentLastName: "Stein",
		ParentEmail: "malka@example.com",
	})
	if err != nil {
		t.Fatalf("create camper: %v", err)
	}
	fee, err := feeSvc.Create(context.Background(), feedomain.CreateFeeRequest{
		Name: "Camp Fee", Amount: decimal.RequireFromString("3475"),
	})
	if err != nil {
		t.Fatalf("create fee: %v", err)
	}

	return &testEnv{
		db:        db,
		invoices:  invoiceSvc,
		campers:   camperSvc,
		fees:      feeSvc,
		clock:     fixed,
		camperID:  camper.ID,
		campFeeID: fee.ID,
	}
}

func TestCreateInvoiceFromFees(t *testing.T) {
	env := setupInvoiceTestEnv(t)
	ctx := context.Background()

	inv, err := env.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CamperID: env.camperID,
		FeeIDs:   []snowflake.ID{env.campFeeID},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if !inv.Amount.Equal(decimal.RequireFromString("3475")) {
		t.Fatalf("expected amount 3475, got %s", inv.Amount)
	}
	if inv.Status != invoicedomain.InvoiceStatusPending {
		t.Fatalf("expected pending, got %s", inv.Status)
	}
	if inv.Description != "Camp Fee" {
		t.Fatalf("expected description from fee name, got %q", inv.Description)
	}
	if inv.DueDate == nil {
		t.Fatal("expected a default due date")
	}
	wantDue := testNow.AddDate(0, 0, 90)
	if !inv.DueDate.Equal(wantDue) {
		t.Fatalf("expected due %s, got %s", wantDue, inv.DueDate)
	}
	if inv.NextReminderDate == nil {
		t.Fatal("expected a scheduled reminder")
	}

	camper, err := env.campers.GetByID(ctx, env.camperID)
	if err != nil {
		t.Fatalf("get camper: %v", err)
	}
	if !camper.TotalBalance.Equal(inv.Amount) {
		t.Fatalf("expected camper balance %s, got %s", inv.Amount, camper.TotalBalance)
	}
}

func TestCreateInvoiceWithDiscounts(t *testing.T) {
	env := setupInvoiceTestEnv(t)
	ctx := context.Background()

	custom := decimal.RequireFromString("25")
	extra, err := env.fees.Create(ctx, feedomain.CreateFeeRequest{
		Name: "Canteen", Amount: decimal.RequireFromString("50"),
	})
	if err != nil {
		t.Fatalf("create fee: %v", err)
	}
	campFee, err := env.fees.Update(ctx, env.campFeeID, feedomain.UpdateFeeRequest{
		Amount: pointer(decimal.RequireFromString("100")),
	})
	if err != nil {
		t.Fatalf("update fee: %v", err)
	}

	inv, err := env.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CamperID:     env.camperID,
		FeeIDs:       []snowflake.ID{campFee.ID, extra.ID},
		CustomAmount: &custom,
		Discounts: invoicedomain.Discounts{
			General: &invoicedomain.Discount{Type: invoicedomain.DiscountTypePercent, Value: decimal.RequireFromString("10")},
		},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if !inv.Amount.Equal(decimal.RequireFromString("157.5")) {
		t.Fatalf("expected 157.5, got %s", inv.Amount)
	}
}

func pointer[T any](v T) *T { return &v }

func TestCreateInvoiceRejectsZeroCustomAmount(t *testing.T) {
	env := setupInvoiceTestEnv(t)

	zero := decimal.Zero
	_, err := env.invoices.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CamperID:     env.camperID,
		CustomAmount: &zero,
	})
	if !errors.Is(err, invoicedomain.ErrNothingToInvoice) {
		t.Fatalf("expected ErrNothingToInvoice, got %v", err)
	}
}

func TestCreateInvoiceRejectsFullyDiscountedTotal(t *testing.T) {
	env := setupInvoiceTestEnv(t)

	custom := decimal.RequireFromString("100")
	_, err := env.invoices.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CamperID:     env.camperID,
		CustomAmount: &custom,
		Discounts: invoicedomain.Discounts{
			General: &invoicedomain.Discount{Type: invoicedomain.DiscountTypeFixed, Value: decimal.RequireFromString("500")},
		},
	})
	if !errors.Is(err, invoicedomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateInvoiceRejectsUnknownCamper(t *testing.T) {
	env := setupInvoiceTestEnv(t)

	_, err := env.invoices.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CamperID: snowflake.ID(999999),
		FeeIDs:   []snowflake.ID{env.campFeeID},
	})
	if !errors.Is(err, invoicedomain.ErrInvalidCamper) {
		t.Fatalf("expected ErrInvalidCamper, got %v", err)
	}
}

func TestCreateInvoiceRejectsUnknownFee(t *testing.T) {
	env := setupInvoiceTestEnv(t)

	_, err := env.invoices.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CamperID: env.camperID,
		FeeIDs:   []snowflake.ID{snowflake.ID(424242)},
	})
	if !errors.Is(err, feedomain.ErrFeeNotFound) {
		t.Fatalf("expected ErrFeeNotFound, got %v", err)
	}
}

func TestCreateInvoiceRejectsNegativeCustomByDefault(t *testing.T) {
	env := setupInvoiceTestEnv(t)

	neg := decimal.RequireFromString("-30")
	_, err := env.invoices.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CamperID:     env.camperID,
		CustomAmount: &neg,
	})
	if !errors.Is(err, invoicedomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateInvoiceRejectsEmptyComposition(t *testing.T) {
	env := setupInvoiceTestEnv(t)

	_, err := env.invoices.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CamperID: env.camperID,
	})
	if !errors.Is(err, invoicedomain.ErrNothingToInvoice) {
		t.Fatalf("expected ErrNothingToInvoice, got %v", err)
	}
}

func TestMarkReminderSentAdvancesSchedule(t *testing.T) {
	env := setupInvoiceTestEnv(t)
	ctx := context.Background()

	inv, err := env.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CamperID: env.camperID,
		FeeIDs:   []snowflake.ID{env.campFeeID},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	first := inv.NextReminderDate
	if first == nil {
		t.Fatal("expected a scheduled reminder")
	}

	updated, err := env.invoices.MarkReminderSent(ctx, inv.ID, *first)
	if err != nil {
		t.Fatalf("mark reminder: %v", err)
	}
	if len(updated.ReminderSentDates) != 1 {
		t.Fatalf("expected one sent date, got %d", len(updated.ReminderSentDates))
	}
	if updated.NextReminderDate == nil {
		t.Fatal("expected a next reminder")
	}
	if !updated.NextReminderDate.After(*first) {
		t.Fatalf("expected next reminder after %s, got %s", first, updated.NextReminderDate)
	}
}

func TestDueForReminderSkipsPaidAndFuture(t *testing.T) {
	env := setupInvoiceTestEnv(t)
	ctx := context.Background()

	inv, err := env.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CamperID: env.camperID,
		FeeIDs:   []snowflake.ID{env.campFeeID},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	due, err := env.invoices.DueForReminder(ctx, inv.NextReminderDate.AddDate(0, 0, 1), 10)
	if err != nil {
		t.Fatalf("due for reminder: %v", err)
	}
	if len(due) != 1 || due[0].ID != inv.ID {
		t.Fatalf("expected the invoice to be due, got %d rows", len(due))
	}

	early, err := env.invoices.DueForReminder(ctx, testNow.AddDate(0, 0, -1), 10)
	if err != nil {
		t.Fatalf("due for reminder: %v", err)
	}
	if len(early) != 0 {
		t.Fatalf("expected no invoices due yet, got %d", len(early))
	}
}
