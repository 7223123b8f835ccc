package enums

import "fmt"

// MobileNetwork names a Tanzanian mobile money operator.
type MobileNetwork string

const (
	NetworkMPesa       MobileNetwork = "M-Pesa"
	NetworkTigoPesa    MobileNetwork = "Tigo Pesa"
	NetworkAirtelMoney MobileNetwork = "Airtel Money"
	NetworkHaloPesa    MobileNetwork = "HaloPesa"
)

var validMobileNetworks = []MobileNetwork{
	NetworkMPesa,
	NetworkTigoPesa,
	NetworkAirtelMoney,
	NetworkHaloPesa,
}

// String implements fmt.Stringer.
func (v MobileNetwork) String() string {
	return string(v)
}

// IsValid reports whether the value is a known MobileNetwork.
func (v MobileNetwork) IsValid() bool {
	for _, candidate := range validMobileNetworks {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseMobileNetwork converts raw input into a MobileNetwork.
func ParseMobileNetwork(value string) (MobileNetwork, error) {
	for _, candidate := range validMobileNetworks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mobile network %q", value)
}
