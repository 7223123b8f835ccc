package enums

import "fmt"

// OrderStatus tracks the fulfilment stage of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusWaiting    OrderStatus = "waiting"
	OrderStatusOnway      OrderStatus = "onway"
	OrderStatusPickup     OrderStatus = "pickup"
	OrderStatusDelivered  OrderStatus = "delivered"
)

var validOrderStatuss = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusWaiting,
	OrderStatusOnway,
	OrderStatusPickup,
	OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (v OrderStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OrderStatus.
func (v OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuss {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Oda Imepokelewa",
	OrderStatusProcessing: "Inaandaliwa",
	OrderStatusWaiting:    "Inasubiri Msafirishaji",
	OrderStatusOnway:      "Iko Njiani",
	OrderStatusPickup:     "Tayari Kuchukua",
	OrderStatusDelivered:  "Imefika!",
}

// Label returns the buyer-facing Swahili label for the status.
func (v OrderStatus) Label() string {
	if label, ok := orderStatusLabels[v]; ok {
		return label
	}
	return string(v)
}

// Rank orders statuses along the fulfilment track. Waiting/onway and pickup
// are parallel branches, so pickup shares rank with waiting.
func (v OrderStatus) Rank() int {
	switch v {
	case OrderStatusPending:
		return 0
	case OrderStatusProcessing:
		return 1
	case OrderStatusWaiting, OrderStatusPickup:
		return 2
	case OrderStatusOnway:
		return 3
	case OrderStatusDelivered:
		return 4
	default:
		return -1
	}
}

// IsTerminal reports whether no further transitions are possible.
func (v OrderStatus) IsTerminal() bool {
	return v == OrderStatusDelivered
}
