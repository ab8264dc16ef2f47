package disputes

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// OpenDisputeInput is the buyer's refund request against a paid order.
type OpenDisputeInput struct {
	OrderID        uuid.UUID
	BuyerID        uuid.UUID
	DisputedAmount decimal.Decimal
	ProviderCaseID string
	Reason         string
}

// LiabilityRatio apportions the disputed amount between the parties. The
// shares must sum to 1.
type LiabilityRatio struct {
	Seller   decimal.Decimal `json:"seller"`
	Platform decimal.Decimal `json:"platform"`
}

// ResolveDisputeInput is the admin verdict on an open dispute.
type ResolveDisputeInput struct {
	DisputeID      uuid.UUID
	Status         enums.DisputeStatus
	LiabilityParty *enums.LiabilityParty
	LiabilityRatio *LiabilityRatio
	ResolutionNote string
	ResolvedBy     uuid.UUID
}
