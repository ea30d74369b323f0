package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/pkg/enums"
)

// OrderCreatedEvent signals that checkout produced a new order. The merchant
// is the notification recipient.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	ReferenceCode string          `json:"reference_code"`
	UserID        uuid.UUID       `json:"user_id"`
	MerchantID    uuid.UUID       `json:"merchant_id"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	ItemCount     int             `json:"item_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderStatusChangedEvent is emitted exactly once per successful lifecycle
// transition. Audience names who gets notified: the customer for
// merchant-initiated transitions, the merchant for a customer cancel.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID                  `json:"order_id"`
	ReferenceCode  string                     `json:"reference_code"`
	UserID         uuid.UUID                  `json:"user_id"`
	MerchantID     uuid.UUID                  `json:"merchant_id"`
	PreviousStatus enums.OrderStatus          `json:"previous_status"`
	Status         enums.OrderStatus          `json:"status"`
	Action         enums.OrderAction          `json:"action"`
	Audience       enums.NotificationAudience `json:"audience"`
	ChangedAt      time.Time                  `json:"changed_at"`
}

// NotificationRequestedEvent asks the worker to broadcast a free-form
// message, fanned out to every recipient's device tokens.
type NotificationRequestedEvent struct {
	Audience enums.NotificationAudience `json:"audience"`
	Title    string                     `json:"title"`
	Message  string                     `json:"message"`
}
