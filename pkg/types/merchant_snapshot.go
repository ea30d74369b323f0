package types

import "github.com/google/uuid"

// MerchantSnapshot is the denormalized merchant contact captured when a cart
// group or order is created. It is copied at write time, never live-joined,
// so later merchant profile edits do not rewrite history.
type MerchantSnapshot struct {
	MerchantID           uuid.UUID `json:"merchant_id"`
	Name                 string    `json:"name"`
	Phone                string    `json:"phone,omitempty"`
	Email                string    `json:"email,omitempty"`
	Address              string    `json:"address,omitempty"`
	PaymentRecipientCode string    `json:"payment_recipient_code,omitempty"`
}
