package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
)

// Repository defines the persistence surface for the merchant/food catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindMerchantByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	FindMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error)
	CreateMerchant(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error)
	FindFoodByID(ctx context.Context, id uuid.UUID) (*models.Food, error)
	ListFoodsByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.Food, error)
	ListMerchants(ctx context.Context) ([]models.Merchant, error)
}
