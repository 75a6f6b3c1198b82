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
	"github.com/office562/campbaraisa-sub000/internal/cache"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	camperservice "github.com/office562/campbaraisa-sub000/internal/camper/service"
	"github.com/office562/campbaraisa-sub000/internal/clock"
	"github.com/office562/campbaraisa-sub000/internal/config"
	"github.com/office562/campbaraisa-sub000/internal/events"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	invoiceservice "github.com/office562/campbaraisa-sub000/internal/invoice/service"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	"github.com/office562/campbaraisa-sub000/internal/payment/gateway"
	paymentservice "github.com/office562/campbaraisa-sub000/internal/payment/service"
	portaldomain "github.com/office562/campbaraisa-sub000/internal/portal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubGateway struct{ sessions int }

func (g *stubGateway) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	g.sessions++
	id := fmt.Sprintf("cs_portal_%d", g.sessions)
	return &gateway.Checkout{SessionID: id, CheckoutURL: "https://pay.test/checkout/" + id}, nil
}
func (g *stubGateway) VerifySignature(payload []byte, headers http.Header) error { return nil }
func (g *stubGateway) ParseConfirmation(payload []byte) (*gateway.Confirmation, error) {
	return nil, gateway.ErrBadPayload
}

type portalTestEnv struct {
	portal   portaldomain.Service
	campers  camperdomain.Service
	invoices invoicedomain.Service
	tokens   map[string]string // camper first name -> portal token
	ids      map[string]snowflake.ID
}

func setupPortalTestEnv(t *testing.T) *portalTestEnv {
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

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	fixed := clock.Fixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{
		Billing: config.BillingConfig{
			CardSurchargeRate: decimal.RequireFromString("0.035"),
			DefaultDueInDays:  90,
		},
	}

	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepo.Provide()})
	outbox := events.NewOutbox(db, node)
	camperSvc := camperservice.NewService(camperservice.Params{DB: db, Log: log, GenID: node})
	invoiceSvc := invoiceservice.NewService(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Cfg: cfg, Clock: fixed,
		CamperSvc: camperSvc, FeeSvc: nil, AuditSvc: auditSvc, Outbox: outbox,
	})
	paymentSvc := paymentservice.NewService(paymentservice.Params{
		DB: db, Log: log, GenID: node, Cfg: cfg, Clock: fixed,
		CamperSvc: camperSvc, AuditSvc: auditSvc, Outbox: outbox, Gateway: &stubGateway{},
	})
	portalSvc := NewService(Params{
		Log: log, CamperSvc: camperSvc, InvoiceSvc: invoiceSvc,
		PaymentSvc: paymentSvc, TokenCache: cache.NewPortalTokenCache(),
	})

	env := &portalTestEnv{
		portal:   portalSvc,
		campers:  camperSvc,
		invoices: invoiceSvc,
		tokens:   map[string]string{},
		ids:      map[string]snowflake.ID{},
	}

	create := func(first, email string) {
		camper, err := camperSvc.Create(context.Background(), camperdomain.CreateCamperRequest{
			FirstName: first, LastName: "Levi",
			ParentFirstName: "Chana", ParentLastName: "Levi", ParentEmail: email,
		})
		if err != nil {
			t.Fatalf("create camper: %v", err)
		}
		env.ids[first] = camper.ID
		var raw camperdomain.Camper
		if err := db.Where("id = ?", camper.ID).First(&raw).Error; err != nil {
			t.Fatalf("load camper: %v", err)
		}
		env.tokens[first] = raw.PortalToken
	}
	create("Moshe", "chana@example.com")
	create("Esti", "chana@example.com")
	create("Yoni", "other@example.com")

	for _, first := range []string{"Moshe", "Esti", "Yoni"} {
		amount := decimal.RequireFromString("100")
		_, err := invoiceSvc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
			CamperID:     env.ids[first],
			CustomAmount: &amount,
		})
		if err != nil {
			t.Fatalf("create invoice: %v", err)
		}
	}
	return env
}

func TestPortalLoadShowsWholeFamily(t *testing.T) {
	env := setupPortalTestEnv(t)

	view, err := env.portal.Load(context.Background(), env.tokens["Moshe"])
	if err != nil {
		t.Fatalf("load portal: %v", err)
	}
	if view.Parent.Email != "chana@example.com" {
		t.Fatalf("unexpected parent %+v", view.Parent)
	}
	if len(view.Campers) != 2 {
		t.Fatalf("expected 2 family campers, got %d", len(view.Campers))
	}
	if len(view.Invoices) != 2 {
		t.Fatalf("expected 2 family invoices, got %d", len(view.Invoices))
	}
	if !view.TotalBalance.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected family balance 200, got %s", view.TotalBalance)
	}
}

func TestPortalLoadRejectsUnknownToken(t *testing.T) {
	env := setupPortalTestEnv(t)

	for _, token := range []string{"", "  ", "not-a-token"} {
		_, err := env.portal.Load(context.Background(), token)
		if !errors.Is(err, portaldomain.ErrPortalTokenInvalid) {
			t.Fatalf("token %q: expected ErrPortalTokenInvalid, got %v", token, err)
		}
	}
}

func TestPortalLoadCachesToken(t *testing.T) {
	env := setupPortalTestEnv(t)
	ctx := context.Background()

	if _, err := env.portal.Load(ctx, env.tokens["Yoni"]); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := env.portal.Load(ctx, env.tokens["Yoni"]); err != nil {
		t.Fatalf("cached load: %v", err)
	}
}

func TestPortalInitiateCardPaymentForOwnInvoice(t *testing.T) {
	env := setupPortalTestEnv(t)
	ctx := context.Background()

	view, err := env.portal.Load(ctx, env.tokens["Moshe"])
	if err != nil {
		t.Fatalf("load portal: %v", err)
	}

	checkout, err := env.portal.InitiateCardPayment(ctx, env.tokens["Moshe"], paymentdomain.InitiateCardRequest{
		InvoiceID: view.Invoices[0].ID,
		Amount:    decimal.RequireFromString("50"),
	})
	if err != nil {
		t.Fatalf("initiate card: %v", err)
	}
	if checkout.Payment.Status != paymentdomain.StatusPending {
		t.Fatalf("expected pending, got %s", checkout.Payment.Status)
	}
}

func TestPortalInitiateCardPaymentRejectsForeignInvoice(t *testing.T) {
	env := setupPortalTestEnv(t)
	ctx := context.Background()

	foreign, err := env.portal.Load(ctx, env.tokens["Yoni"])
	if err != nil {
		t.Fatalf("load portal: %v", err)
	}

	_, err = env.portal.InitiateCardPayment(ctx, env.tokens["Moshe"], paymentdomain.InitiateCardRequest{
		InvoiceID: foreign.Invoices[0].ID,
		Amount:    decimal.RequireFromString("50"),
	})
	if !errors.Is(err, portaldomain.ErrPortalTokenInvalid) {
		t.Fatalf("expected ErrPortalTokenInvalid, got %v", err)
	}
}
