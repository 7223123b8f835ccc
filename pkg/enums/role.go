package enums

import "fmt"

// Role is the immutable account role.
type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

var validRoles = []Role{
	RoleUser,
	RoleVendor,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (v Role) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Role.
func (v Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
