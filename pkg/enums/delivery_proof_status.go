package enums

import "fmt"

// DeliveryProofStatus tracks PIN-based handover verification.
type DeliveryProofStatus string

const (
	DeliveryProofStatusPending  DeliveryProofStatus = "pending"
	DeliveryProofStatusVerified DeliveryProofStatus = "verified"
)

var validDeliveryProofStatuses = []DeliveryProofStatus{
	DeliveryProofStatusPending,
	DeliveryProofStatusVerified,
}

// String implements fmt.Stringer.
func (d DeliveryProofStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryProofStatus.
func (d DeliveryProofStatus) IsValid() bool {
	for _, candidate := range validDeliveryProofStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryProofStatus converts raw input into a DeliveryProofStatus.
func ParseDeliveryProofStatus(value string) (DeliveryProofStatus, error) {
	for _, candidate := range validDeliveryProofStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery proof status %q", value)
}
