package enums

import "fmt"

// VendorDecision is the admin outcome for a vendor application.
type VendorDecision string

const (
	VendorDecisionApprove VendorDecision = "approve"
	VendorDecisionReject  VendorDecision = "reject"
)

var validVendorDecisions = []VendorDecision{
	VendorDecisionApprove,
	VendorDecisionReject,
}

// String implements fmt.Stringer.
func (v VendorDecision) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorDecision.
func (v VendorDecision) IsValid() bool {
	for _, candidate := range validVendorDecisions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVendorDecision converts raw input into a VendorDecision.
func ParseVendorDecision(value string) (VendorDecision, error) {
	for _, candidate := range validVendorDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor decision %q", value)
}

// Status maps the decision to the resulting vendor status.
func (v VendorDecision) Status() VendorStatus {
	if v == VendorDecisionApprove {
		return VendorStatusApproved
	}
	return VendorStatusRejected
}
