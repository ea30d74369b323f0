package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	"github.com/chowline/chowline-backend/pkg/pagination"
	"github.com/chowline/chowline-backend/pkg/types"
)

// ListFilters narrows order list queries.
type ListFilters struct {
	Status *enums.OrderStatus
}

// Repository defines the persistence surface for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByReference(ctx context.Context, referenceCode string) (*models.Order, error)
	// ReferenceExists reports whether a reference code is already taken.
	// Checkout uses it to retry generation before inserting.
	ReferenceExists(ctx context.Context, referenceCode string) (bool, error)
	// UpdateStatus moves the order from one status to another in a single
	// guarded write. Zero rows affected means the row was not in the expected
	// status anymore.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, history types.StatusHistory, at time.Time) (int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error)
}
