package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/office562/campbaraisa-sub000/internal/auth/domain"
	"github.com/office562/campbaraisa-sub000/internal/auth/password"
	"github.com/office562/campbaraisa-sub000/internal/config"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultFeeName   = "Camp Fee"
	defaultFeeAmount = "3475"
)

// EnsureDefaultFee seeds the protected base fee every fresh database needs.
// The fee keeps its protection even if an admin renames or re-prices it.
func EnsureDefaultFee(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ensureDefaultFeeTx(ctx, tx, node)
	})
}

func ensureDefaultFeeTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var fee feedomain.Fee
	err := tx.WithContext(ctx).Where("is_default = ?", true).First(&fee).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	fee = feedomain.Fee{
		ID:        node.Generate(),
		Name:      defaultFeeName,
		Amount:    decimal.RequireFromString(defaultFeeAmount),
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&fee).Error
}

// EnsureDefaultAdmin seeds the bootstrap back-office login when enabled.
func EnsureDefaultAdmin(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if !cfg.Bootstrap.EnsureDefaultAdmin {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.Bootstrap.AdminEmail))
	if email == "" || cfg.Bootstrap.AdminPassword == "" {
		return errors.New("bootstrap admin credentials are required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin authdomain.Admin
		err := tx.WithContext(ctx).Where("email = ?", email).First(&admin).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(cfg.Bootstrap.AdminPassword)
		if err != nil {
			return err
		}
		admin = authdomain.Admin{
			ID:           node.Generate(),
			Email:        email,
			DisplayName:  "Camp Administrator",
			PasswordHash: hashed,
			CreatedAt:    time.Now().UTC(),
		}
		return tx.WithContext(ctx).Create(&admin).Error
	})
}
