package enums

import "fmt"

// VendorStatus tracks a vendor application decision.
type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

var validVendorStatuss = []VendorStatus{
	VendorStatusPending,
	VendorStatusApproved,
	VendorStatusRejected,
}

// String implements fmt.Stringer.
func (v VendorStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorStatus.
func (v VendorStatus) IsValid() bool {
	for _, candidate := range validVendorStatuss {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVendorStatus converts raw input into a VendorStatus.
func ParseVendorStatus(value string) (VendorStatus, error) {
	for _, candidate := range validVendorStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor status %q", value)
}
