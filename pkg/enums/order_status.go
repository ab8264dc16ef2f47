package enums

import "fmt"

// OrderStatus tracks the lifecycle of a marketplace order.
type OrderStatus string

const (
	OrderStatusPendingSellerApproval OrderStatus = "pending_seller_approval"
	OrderStatusSellerApproved        OrderStatus = "seller_approved"
	OrderStatusAwaitingPayment       OrderStatus = "awaiting_payment"
	OrderStatusPaid                  OrderStatus = "paid"
	OrderStatusPreparing             OrderStatus = "preparing"
	OrderStatusReady                 OrderStatus = "ready"
	OrderStatusInDelivery            OrderStatus = "in_delivery"
	OrderStatusDelivered             OrderStatus = "delivered"
	OrderStatusCompleted             OrderStatus = "completed"
	OrderStatusRejected              OrderStatus = "rejected"
	OrderStatusCancelled             OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingSellerApproval,
	OrderStatusSellerApproved,
	OrderStatusAwaitingPayment,
	OrderStatusPaid,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusInDelivery,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusRejected,
	OrderStatusCancelled,
}

// AllOrderStatuses returns every known status in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusCompleted, OrderStatusRejected, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
