package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/pkg/enums"
	"github.com/chowline/chowline-backend/pkg/types"
)

// Order is the immutable result of checking out one merchant group. Items and
// totals are frozen at creation; only Status, StatusHistory and
// PaymentStatus change afterward, and only through the lifecycle engine.
type Order struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	MerchantID      uuid.UUID              `gorm:"column:merchant_id;type:uuid;not null;index"`
	Merchant        types.MerchantSnapshot `gorm:"column:merchant_snapshot;type:jsonb;serializer:json"`
	ReferenceCode   string                 `gorm:"column:reference_code;type:text;not null;uniqueIndex"`
	Items           types.OrderItems       `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Subtotal        decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee     decimal.Decimal        `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	ServiceFee      decimal.Decimal        `gorm:"column:service_fee;type:numeric(12,2);not null;default:0"`
	Surcharge       decimal.Decimal        `gorm:"column:surcharge;type:numeric(12,2);not null;default:0"`
	GrandTotal      decimal.Decimal        `gorm:"column:grand_total;type:numeric(12,2);not null"`
	DeliveryAddress *types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	PaymentStatus   enums.PaymentStatus    `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Status          enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'new'"`
	StatusHistory   types.StatusHistory    `gorm:"column:status_history;type:jsonb;serializer:json;not null"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
