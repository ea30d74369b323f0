package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/pkg/types"
)

// CartMerchantGroup holds the items from one merchant plus a merchant contact
// snapshot captured when the group was created. A cart carries at most one
// group at a time; the group is deleted when its last item is removed.
type CartMerchantGroup struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID              `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_merchant"`
	MerchantID uuid.UUID              `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:idx_cart_merchant"`
	Merchant   types.MerchantSnapshot `gorm:"column:merchant_snapshot;type:jsonb;serializer:json"`
	Subtotal   decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	Items      []CartItem             `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartMerchantGroup) TableName() string {
	return "cart_merchant_groups"
}
