package enums

import "fmt"

// OrderAction is a lifecycle input applied to an order. Accept is an action,
// not a stored status: accepting an order stores "processing".
type OrderAction string

const (
	OrderActionAccept  OrderAction = "accept"
	OrderActionReject  OrderAction = "reject"
	OrderActionCancel  OrderAction = "cancel"
	OrderActionPickup  OrderAction = "pickup"
	OrderActionDeliver OrderAction = "deliver"
)

var validOrderActions = []OrderAction{
	OrderActionAccept,
	OrderActionReject,
	OrderActionCancel,
	OrderActionPickup,
	OrderActionDeliver,
}

// String implements fmt.Stringer.
func (a OrderAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known OrderAction.
func (a OrderAction) IsValid() bool {
	for _, candidate := range validOrderActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// TargetStatus returns the status an order lands in when the action succeeds.
func (a OrderAction) TargetStatus() OrderStatus {
	switch a {
	case OrderActionAccept:
		return OrderStatusProcessing
	case OrderActionReject:
		return OrderStatusRejected
	case OrderActionCancel:
		return OrderStatusCancelled
	case OrderActionPickup:
		return OrderStatusPickedUp
	case OrderActionDeliver:
		return OrderStatusDelivered
	}
	return ""
}

// ParseOrderAction converts raw input into an OrderAction.
func ParseOrderAction(value string) (OrderAction, error) {
	for _, candidate := range validOrderActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order action %q", value)
}
