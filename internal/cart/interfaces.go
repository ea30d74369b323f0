package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the cart service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	// UpdateVersioned persists the cart's scalar fields only when the stored
	// version still matches expectedVersion, bumping version by one.
	// ErrVersionConflict is returned when the row moved underneath us.
	UpdateVersioned(ctx context.Context, cart *models.Cart, expectedVersion int64) error
	// ReplaceGroups rewrites the cart's merchant groups and their items
	// wholesale. The totals on the cart row are the caller's responsibility.
	ReplaceGroups(ctx context.Context, cartID uuid.UUID, groups []models.CartMerchantGroup) error
	// Reset empties the cart after checkout: groups deleted, totals zeroed,
	// version bumped. Safe to call on an already-empty cart.
	Reset(ctx context.Context, cartID uuid.UUID) error
	DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}
