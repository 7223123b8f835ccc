package enums

import "fmt"

// SettlementDecision is the admin outcome for a pending withdrawal.
type SettlementDecision string

const (
	SettlementPaid     SettlementDecision = "paid"
	SettlementRejected SettlementDecision = "rejected"
)

var validSettlementDecisions = []SettlementDecision{
	SettlementPaid,
	SettlementRejected,
}

// String implements fmt.Stringer.
func (v SettlementDecision) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SettlementDecision.
func (v SettlementDecision) IsValid() bool {
	for _, candidate := range validSettlementDecisions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSettlementDecision converts raw input into a SettlementDecision.
func ParseSettlementDecision(value string) (SettlementDecision, error) {
	for _, candidate := range validSettlementDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement decision %q", value)
}

// Status maps the decision to the resulting withdrawal status.
func (v SettlementDecision) Status() WithdrawalStatus {
	if v == SettlementPaid {
		return WithdrawalStatusPaid
	}
	return WithdrawalStatusRejected
}
