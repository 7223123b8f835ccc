package enums

import "fmt"

// WithdrawalStatus tracks a payout request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

var validWithdrawalStatuss = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusPaid,
	WithdrawalStatusRejected,
}

// String implements fmt.Stringer.
func (v WithdrawalStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WithdrawalStatus.
func (v WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuss {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWithdrawalStatus converts raw input into a WithdrawalStatus.
func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	for _, candidate := range validWithdrawalStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal status %q", value)
}

// Commits reports whether the withdrawal still counts against the balance.
func (v WithdrawalStatus) Commits() bool {
	return v == WithdrawalStatusPending || v == WithdrawalStatusPaid
}
