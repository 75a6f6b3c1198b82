package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateCamperRequest) (*Camper, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Camper, error)
	GetByPortalToken(ctx context.Context, token string) (*Camper, error)
	List(ctx context.Context) ([]Camper, error)
	// ListByParentEmail returns every camper in one family, for the
	// combined portal view.
	ListByParentEmail(ctx context.Context, email string) ([]Camper, error)

	// AddBalanceTx and AddPaidTx adjust the camper rollups inside the
	// billing transaction that created the underlying invoice or payment.
	AddBalanceTx(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error
	AddPaidTx(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrCamperNotFound = errors.New("camper_not_found")
)
