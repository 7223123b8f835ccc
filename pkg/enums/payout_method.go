package enums

import "fmt"

// PayoutMethod is how a vendor receives a withdrawal.
type PayoutMethod string

const (
	PayoutMobile PayoutMethod = "mobile"
	PayoutBank   PayoutMethod = "bank"
)

var validPayoutMethods = []PayoutMethod{
	PayoutMobile,
	PayoutBank,
}

// String implements fmt.Stringer.
func (v PayoutMethod) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PayoutMethod.
func (v PayoutMethod) IsValid() bool {
	for _, candidate := range validPayoutMethods {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePayoutMethod converts raw input into a PayoutMethod.
func ParsePayoutMethod(value string) (PayoutMethod, error) {
	for _, candidate := range validPayoutMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout method %q", value)
}
