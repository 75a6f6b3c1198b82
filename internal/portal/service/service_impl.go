package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/office562/campbaraisa-sub000/internal/cache"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	portaldomain "github.com/office562/campbaraisa-sub000/internal/portal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// tokenCacheTTL keeps resolved tokens hot between portal page loads.
const tokenCacheTTL = 5 * time.Minute

type Params struct {
	fx.In

	Log        *zap.Logger
	CamperSvc  camperdomain.Service
	InvoiceSvc invoicedomain.Service
	PaymentSvc paymentdomain.Service
	TokenCache cache.PortalTokenCache
}

type Service struct {
	log        *zap.Logger
	camperSvc  camperdomain.Service
	invoiceSvc invoicedomain.Service
	paymentSvc paymentdomain.Service
	tokenCache cache.PortalTokenCache
}

func NewService(p Params) portaldomain.Service {
	return &Service{
		log:        p.Log.Named("portal.service"),
		camperSvc:  p.CamperSvc,
		invoiceSvc: p.InvoiceSvc,
		paymentSvc: p.PaymentSvc,
		tokenCache: p.TokenCache,
	}
}

func (s *Service) Load(ctx context.Context, token string) (*portaldomain.View, error) {
	camper, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	campers, err := s.familyCampers(ctx, camper)
	if err != nil {
		return nil, err
	}

	camperIDs := make([]snowflake.ID, 0, len(campers))
	totalBalance := decimal.Zero
	totalPaid := decimal.Zero
	for _, c := range campers {
		camperIDs = append(camperIDs, c.ID)
		totalBalance = totalBalance.Add(c.TotalBalance)
		totalPaid = totalPaid.Add(c.TotalPaid)
	}

	invoices, err := s.invoiceSvc.ListByCamperIDs(ctx, camperIDs)
	if err != nil {
		return nil, err
	}
	invoiceIDs := make([]snowflake.ID, 0, len(invoices))
	for _, inv := range invoices {
		invoiceIDs = append(invoiceIDs, inv.ID)
	}
	payments, err := s.paymentSvc.ListByInvoiceIDs(ctx, invoiceIDs)
	if err != nil {
		return nil, err
	}

	return &portaldomain.View{
		Parent: portaldomain.Parent{
			FirstName: camper.ParentFirstName,
			LastName:  camper.ParentLastName,
			Email:     camper.ParentEmail,
			Phone:     camper.ParentPhone,
		},
		Campers:      campers,
		Invoices:     invoices,
		Payments:     payments,
		TotalBalance: totalBalance,
		TotalPaid:    totalPaid,
	}, nil
}

func (s *Service) InitiateCardPayment(ctx context.Context, token string, req paymentdomain.InitiateCardRequest) (*paymentdomain.CardCheckout, error) {
	camper, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceSvc.GetByID(ctx, req.InvoiceID)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
			return nil, portaldomain.ErrPortalTokenInvalid
		}
		return nil, err
	}

	campers, err := s.familyCampers(ctx, camper)
	if err != nil {
		return nil, err
	}
	owned := false
	for _, c := range campers {
		if c.ID == invoice.CamperID {
			owned = true
			break
		}
	}
	if !owned {
		// A foreign invoice looks exactly like a bad token from outside.
		return nil, portaldomain.ErrPortalTokenInvalid
	}

	return s.paymentSvc.InitiateCard(ctx, req)
}

func (s *Service) resolveToken(ctx context.Context, token string) (*camperdomain.Camper, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, portaldomain.ErrPortalTokenInvalid
	}

	if id, ok := s.tokenCache.Get(token); ok {
		camper, err := s.camperSvc.GetByID(ctx, id)
		if err == nil {
			return camper, nil
		}
		if !errors.Is(err, camperdomain.ErrCamperNotFound) {
			return nil, err
		}
	}

	camper, err := s.camperSvc.GetByPortalToken(ctx, token)
	if err != nil {
		if errors.Is(err, camperdomain.ErrCamperNotFound) {
			return nil, portaldomain.ErrPortalTokenInvalid
		}
		return nil, err
	}
	s.tokenCache.Set(token, camper.ID, tokenCacheTTL)
	return camper, nil
}

// familyCampers returns every camper sharing the resolved camper's parent
// email, so a family with several children sees one combined portal.
func (s *Service) familyCampers(ctx context.Context, camper *camperdomain.Camper) ([]camperdomain.Camper, error) {
	if camper.ParentEmail == "" {
		return []camperdomain.Camper{*camper}, nil
	}
	family, err := s.camperSvc.ListByParentEmail(ctx, camper.ParentEmail)
	if err != nil {
		return nil, err
	}
	if len(family) == 0 {
		family = []camperdomain.Camper{*camper}
	}
	return family, nil
}
