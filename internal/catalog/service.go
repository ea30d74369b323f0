package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/types"
)

// Service resolves merchants and foods for the cart and checkout pipeline.
type Service interface {
	GetMerchant(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	GetFood(ctx context.Context, id uuid.UUID) (*models.Food, error)
	ListFoods(ctx context.Context, merchantID uuid.UUID) ([]models.Food, error)
	ListMerchants(ctx context.Context) ([]models.Merchant, error)
	MerchantSnapshot(ctx context.Context, id uuid.UUID) (*types.MerchantSnapshot, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetMerchant(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id is required")
	}
	merchant, err := s.repo.FindMerchantByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	return merchant, nil
}

func (s *service) GetFood(ctx context.Context, id uuid.UUID) (*models.Food, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "food id is required")
	}
	food, err := s.repo.FindFoodByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFoodNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load food")
	}
	return food, nil
}

func (s *service) ListFoods(ctx context.Context, merchantID uuid.UUID) ([]models.Food, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id is required")
	}
	if _, err := s.GetMerchant(ctx, merchantID); err != nil {
		return nil, err
	}
	foods, err := s.repo.ListFoodsByMerchant(ctx, merchantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list foods")
	}
	return foods, nil
}

func (s *service) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	merchants, err := s.repo.ListMerchants(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merchants")
	}
	return merchants, nil
}

// MerchantSnapshot captures the denormalized merchant contact block stored on
// cart groups and orders.
func (s *service) MerchantSnapshot(ctx context.Context, id uuid.UUID) (*types.MerchantSnapshot, error) {
	merchant, err := s.GetMerchant(ctx, id)
	if err != nil {
		return nil, err
	}
	return &types.MerchantSnapshot{
		MerchantID:           merchant.ID,
		Name:                 merchant.Name,
		Phone:                merchant.Phone,
		Email:                merchant.Email,
		Address:              merchant.Address,
		PaymentRecipientCode: merchant.PaymentRecipientCode,
	}, nil
}
