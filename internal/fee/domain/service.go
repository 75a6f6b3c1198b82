package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	List(ctx context.Context) ([]Fee, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]Fee, error)
	Create(ctx context.Context, req CreateFeeRequest) (*Fee, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateFeeRequest) (*Fee, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrFeeNotFound   = errors.New("fee_not_found")
	ErrProtectedFee  = errors.New("protected_fee")
)
