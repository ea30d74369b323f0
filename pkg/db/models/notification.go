package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chowline/chowline-backend/pkg/enums"
)

// Notification stores in-app notification payloads for customers and
// merchants, materialized by the worker from domain events.
type Notification struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID                  `gorm:"column:recipient_id;type:uuid;not null;index"`
	Audience    enums.NotificationAudience `gorm:"column:audience;type:text;not null"`
	Type        enums.NotificationType     `gorm:"column:type;type:text;not null"`
	Title       string                     `gorm:"column:title;type:text;not null"`
	Message     string                     `gorm:"column:message;type:text;not null"`
	OrderRef    *string                    `gorm:"column:order_ref;type:text"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
