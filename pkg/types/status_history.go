package types

import (
	"time"

	"github.com/chowline/chowline-backend/pkg/enums"
)

// StatusChange is one entry in an order's append-only status trail.
type StatusChange struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

// StatusHistory is the jsonb status_history column on an order. Entries are
// append-only; the last entry always matches the order's current status.
type StatusHistory []StatusChange

// Last returns the most recent entry, or a zero value when empty.
func (h StatusHistory) Last() StatusChange {
	if len(h) == 0 {
		return StatusChange{}
	}
	return h[len(h)-1]
}

// Append returns a new history with the change added.
func (h StatusHistory) Append(status enums.OrderStatus, at time.Time) StatusHistory {
	next := make(StatusHistory, 0, len(h)+1)
	next = append(next, h...)
	next = append(next, StatusChange{Status: status, Timestamp: at})
	return next
}
