package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemSnapshot is one frozen cart line copied onto an order at checkout.
// It is never recomputed after the order is created.
type OrderItemSnapshot struct {
	FoodID    uuid.UUID       `json:"food_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Extras    []string        `json:"extras,omitempty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderItems is the jsonb items column on an order.
type OrderItems []OrderItemSnapshot
