package enums

import "fmt"

// DeliveryMethod selects how an order reaches the buyer.
type DeliveryMethod string

const (
	DeliveryCity   DeliveryMethod = "city"
	DeliveryOut    DeliveryMethod = "out"
	DeliveryPickup DeliveryMethod = "pickup"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryCity,
	DeliveryOut,
	DeliveryPickup,
}

// String implements fmt.Stringer.
func (v DeliveryMethod) String() string {
	return string(v)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (v DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}

// IsPickup reports whether the buyer collects the order from the vendor.
func (v DeliveryMethod) IsPickup() bool {
	return v == DeliveryPickup
}
