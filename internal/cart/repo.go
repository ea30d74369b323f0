package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Groups.Items").
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Groups.Items").
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Groups").Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) UpdateVersioned(ctx context.Context, cart *models.Cart, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, expectedVersion).
		Updates(map[string]any{
			"note":        cart.Note,
			"total_items": cart.TotalItems,
			"total_cost":  cart.TotalCost,
			"version":     expectedVersion + 1,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	cart.Version = expectedVersion + 1
	return nil
}

func (r *repository) ReplaceGroups(ctx context.Context, cartID uuid.UUID, groups []models.CartMerchantGroup) error {
	tx := r.db.WithContext(ctx)

	var groupIDs []uuid.UUID
	if err := tx.Model(&models.CartMerchantGroup{}).
		Where("cart_id = ?", cartID).
		Pluck("id", &groupIDs).Error; err != nil {
		return err
	}
	if len(groupIDs) > 0 {
		if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartMerchantGroup{}).Error; err != nil {
		return err
	}
	if len(groups) == 0 {
		return nil
	}

	for i := range groups {
		groups[i].CartID = cartID
		if groups[i].ID == uuid.Nil {
			groups[i].ID = uuid.New()
		}
		for j := range groups[i].Items {
			groups[i].Items[j].GroupID = groups[i].ID
			if groups[i].Items[j].ID == uuid.Nil {
				groups[i].Items[j].ID = uuid.New()
			}
		}
	}
	return tx.Create(&groups).Error
}

func (r *repository) Reset(ctx context.Context, cartID uuid.UUID) error {
	if err := r.ReplaceGroups(ctx, cartID, nil); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"total_items": 0,
			"total_cost":  0,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		}).Error
}

// DeleteStaleBefore removes empty carts untouched since the cutoff. Non-empty
// carts are kept regardless of age.
func (r *repository) DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	res := conn.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Where("total_items = 0").
		Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
