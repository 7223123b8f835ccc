package enums

import "fmt"

// PaymentMethod is how the buyer pays for an order.
type PaymentMethod string

const (
	PaymentMpesa PaymentMethod = "mpesa"
	PaymentBank  PaymentMethod = "bank"
	PaymentCash  PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMpesa,
	PaymentBank,
	PaymentCash,
}

// String implements fmt.Stringer.
func (v PaymentMethod) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentMethod.
func (v PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// RequiresProof reports whether checkout must carry a payer phone and proof reference.
func (v PaymentMethod) RequiresProof() bool {
	return v != PaymentCash
}
