package enums

import "fmt"

// DisputeStatus tracks a refund/chargeback case independently of the
// finance snapshot it may eventually adjust.
type DisputeStatus string

const (
	DisputeStatusOpened      DisputeStatus = "opened"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusWon         DisputeStatus = "won"
	DisputeStatusLost        DisputeStatus = "lost"
	DisputeStatusShared      DisputeStatus = "shared"
)

var validDisputeStatuses = []DisputeStatus{
	DisputeStatusOpened,
	DisputeStatusUnderReview,
	DisputeStatusWon,
	DisputeStatusLost,
	DisputeStatusShared,
}

// String implements fmt.Stringer.
func (d DisputeStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisputeStatus.
func (d DisputeStatus) IsValid() bool {
	for _, candidate := range validDisputeStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsOpen reports whether an admin may still resolve the case.
func (d DisputeStatus) IsOpen() bool {
	return d == DisputeStatusOpened || d == DisputeStatusUnderReview
}

// IsResolution reports whether the value is a legal terminal resolution.
func (d DisputeStatus) IsResolution() bool {
	switch d {
	case DisputeStatusWon, DisputeStatusLost, DisputeStatusShared:
		return true
	default:
		return false
	}
}

// ParseDisputeStatus converts raw input into a DisputeStatus.
func ParseDisputeStatus(value string) (DisputeStatus, error) {
	for _, candidate := range validDisputeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}

// LiabilityParty names who absorbs an adjustment after dispute resolution.
type LiabilityParty string

const (
	LiabilityPartySeller   LiabilityParty = "seller"
	LiabilityPartyPlatform LiabilityParty = "platform"
)

var validLiabilityParties = []LiabilityParty{
	LiabilityPartySeller,
	LiabilityPartyPlatform,
}

// String implements fmt.Stringer.
func (l LiabilityParty) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LiabilityParty.
func (l LiabilityParty) IsValid() bool {
	for _, candidate := range validLiabilityParties {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLiabilityParty converts raw input into a LiabilityParty.
func ParseLiabilityParty(value string) (LiabilityParty, error) {
	for _, candidate := range validLiabilityParties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid liability party %q", value)
}
