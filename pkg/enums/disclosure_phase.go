package enums

import "fmt"

// DisclosurePhase tags when an allergen disclosure was acknowledged.
type DisclosurePhase string

const (
	DisclosurePhasePreOrder DisclosurePhase = "pre_order"
	DisclosurePhaseHandover DisclosurePhase = "handover"
)

var validDisclosurePhases = []DisclosurePhase{
	DisclosurePhasePreOrder,
	DisclosurePhaseHandover,
}

// String implements fmt.Stringer.
func (d DisclosurePhase) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisclosurePhase.
func (d DisclosurePhase) IsValid() bool {
	for _, candidate := range validDisclosurePhases {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisclosurePhase converts raw input into a DisclosurePhase.
func ParseDisclosurePhase(value string) (DisclosurePhase, error) {
	for _, candidate := range validDisclosurePhases {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid disclosure phase %q", value)
}
