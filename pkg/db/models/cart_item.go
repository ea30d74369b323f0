package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// CartItem is one food line inside a merchant group. Extras are stored in
// sorted canonical form so that duplicate detection (same food, same extras)
// is a plain comparison. LineTotal is derived, never set by callers.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID    uuid.UUID       `gorm:"column:group_id;type:uuid;not null"`
	FoodID     uuid.UUID       `gorm:"column:food_id;type:uuid;not null"`
	MerchantID uuid.UUID       `gorm:"column:merchant_id;type:uuid;not null"`
	Name       string          `gorm:"column:name;type:text;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Extras     pq.StringArray  `gorm:"column:extras;type:text[]"`
	LineTotal  decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
