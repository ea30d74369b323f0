package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the mutable shopping cart owned by one customer session. Totals are
// derived from the items and recomputed from scratch on every mutation; the
// version column guards concurrent read-modify-write cycles.
type Cart struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Note       *string             `gorm:"column:note"`
	TotalItems int                 `gorm:"column:total_items;not null;default:0"`
	TotalCost  decimal.Decimal     `gorm:"column:total_cost;type:numeric(12,2);not null;default:0"`
	Version    int64               `gorm:"column:version;not null;default:0"`
	Groups     []CartMerchantGroup `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string {
	return "carts"
}
