package enums

import "fmt"

// ComplianceStatus reflects the regulatory standing of a seller.
type ComplianceStatus string

const (
	ComplianceStatusPending   ComplianceStatus = "pending"
	ComplianceStatusApproved  ComplianceStatus = "approved"
	ComplianceStatusSuspended ComplianceStatus = "suspended"
	ComplianceStatusRejected  ComplianceStatus = "rejected"
)

var validComplianceStatuses = []ComplianceStatus{
	ComplianceStatusPending,
	ComplianceStatusApproved,
	ComplianceStatusSuspended,
	ComplianceStatusRejected,
}

// String implements fmt.Stringer.
func (c ComplianceStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ComplianceStatus.
func (c ComplianceStatus) IsValid() bool {
	for _, candidate := range validComplianceStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsBlocked reports whether the profile forbids seller-initiated transitions.
func (c ComplianceStatus) IsBlocked() bool {
	return c == ComplianceStatusSuspended || c == ComplianceStatusRejected
}

// ParseComplianceStatus converts raw input into a ComplianceStatus.
func ParseComplianceStatus(value string) (ComplianceStatus, error) {
	for _, candidate := range validComplianceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid compliance status %q", value)
}
