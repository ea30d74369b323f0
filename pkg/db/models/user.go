package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User is a customer account. The order pipeline only reads device tokens
// and stamps last_order_date at checkout; everything else is owned by the
// auth service.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string         `gorm:"column:name;type:text"`
	Email         string         `gorm:"column:email;type:text;uniqueIndex"`
	Phone         string         `gorm:"column:phone;type:text"`
	PasswordHash  string         `gorm:"column:password_hash;type:text"`
	DeviceTokens  pq.StringArray `gorm:"column:device_tokens;type:text[]"`
	LastOrderDate *time.Time     `gorm:"column:last_order_date"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
