package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Merchant is the catalog-side store record the cart snapshots from.
type Merchant struct {
	ID                   uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string         `gorm:"column:name;type:text;not null"`
	Phone                string         `gorm:"column:phone;type:text"`
	Email                string         `gorm:"column:email;type:text;uniqueIndex"`
	PasswordHash         string         `gorm:"column:password_hash;type:text"`
	Address              string         `gorm:"column:address;type:text"`
	PaymentRecipientCode string         `gorm:"column:payment_recipient_code;type:text"`
	DeviceTokens         pq.StringArray `gorm:"column:device_tokens;type:text[]"`
	Open                 bool           `gorm:"column:open;not null;default:true"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Merchant) TableName() string {
	return "merchants"
}
