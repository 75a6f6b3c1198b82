package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) camperdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("camper.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req camperdomain.CreateCamperRequest) (*camperdomain.Camper, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return nil, camperdomain.ErrInvalidName
	}

	now := time.Now().UTC()
	camper := &camperdomain.Camper{
		ID:              s.genID.Generate(),
		FirstName:       firstName,
		LastName:        lastName,
		ParentFirstName: strings.TrimSpace(req.ParentFirstName),
		ParentLastName:  strings.TrimSpace(req.ParentLastName),
		ParentEmail:     strings.ToLower(strings.TrimSpace(req.ParentEmail)),
		ParentPhone:     strings.TrimSpace(req.ParentPhone),
		PortalToken:     uuid.NewString(),
		TotalBalance:    decimal.Zero,
		TotalPaid:       decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.WithContext(ctx).Create(camper).Error; err != nil {
		return nil, err
	}
	return camper, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*camperdomain.Camper, error) {
	var camper camperdomain.Camper
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&camper).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, camperdomain.ErrCamperNotFound
		}
		return nil, err
	}
	return &camper, nil
}

func (s *Service) GetByPortalToken(ctx context.Context, token string) (*camperdomain.Camper, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, camperdomain.ErrCamperNotFound
	}

	var camper camperdomain.Camper
	err := s.db.WithContext(ctx).Where("portal_token = ?", token).First(&camper).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, camperdomain.ErrCamperNotFound
		}
		return nil, err
	}
	return &camper, nil
}

func (s *Service) List(ctx context.Context) ([]camperdomain.Camper, error) {
	var campers []camperdomain.Camper
	err := s.db.WithContext(ctx).Order("last_name, first_name").Find(&campers).Error
	if err != nil {
		return nil, err
	}
	return campers, nil
}

func (s *Service) ListByParentEmail(ctx context.Context, email string) ([]camperdomain.Camper, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var campers []camperdomain.Camper
	err := s.db.WithContext(ctx).
		Where("parent_email = ?", email).
		Order("last_name, first_name").
		Find(&campers).Error
	if err != nil {
		return nil, err
	}
	return campers, nil
}

func (s *Service) AddBalanceTx(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error {
	return s.addRollup(ctx, tx, id, "total_balance", amount)
}

func (s *Service) AddPaidTx(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error {
	return s.addRollup(ctx, tx, id, "total_paid", amount)
}

func (s *Service) addRollup(ctx context.Context, tx *gorm.DB, id snowflake.ID, column string, amount decimal.Decimal) error {
	if tx == nil {
		tx = s.db
	}
	result := tx.WithContext(ctx).Exec(
		// Double-quoted identifier keeps the query portable; column is one of
		// the two rollup names above, never caller input.
		`UPDATE campers SET "`+column+`" = "`+column+`" + ?, updated_at = ? WHERE id = ?`,
		amount,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return camperdomain.ErrCamperNotFound
	}
	return nil
}
