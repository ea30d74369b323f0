package types

import "strings"

// DeliveryAddress is the drop-off location captured at checkout, stored as
// jsonb on the order.
type DeliveryAddress struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country,omitempty"`
	Lat        float64 `json:"lat,omitempty"`
	Lng        float64 `json:"lng,omitempty"`
	Phone      string  `json:"phone,omitempty"`
}

// IsZero reports whether no address fields were supplied.
func (a DeliveryAddress) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" && strings.TrimSpace(a.City) == ""
}
