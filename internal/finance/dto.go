package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// AdjustmentInput is a signed correction against an order's finance
// snapshot, attributed to the party that absorbs it.
type AdjustmentInput struct {
	OrderFinanceID uuid.UUID
	Party          enums.LiabilityParty
	Amount         decimal.Decimal
	Reason         string
	SourceType     string
	SourceID       *uuid.UUID
	CreatedBy      uuid.UUID
}

// SetCommissionInput creates a new commission rate version.
type SetCommissionInput struct {
	Rate          decimal.Decimal
	EffectiveFrom time.Time
	CreatedBy     uuid.UUID
}

// SummaryFilters bound a seller summary to a date range.
type SummaryFilters struct {
	From *time.Time
	To   *time.Time
}

// SellerSummary aggregates a seller's settled orders plus adjustments.
type SellerSummary struct {
	SellerID         uuid.UUID       `json:"seller_id"`
	OrderCount       int64           `json:"order_count"`
	GrossTotal       decimal.Decimal `json:"gross_total"`
	CommissionTotal  decimal.Decimal `json:"commission_total"`
	NetTotal         decimal.Decimal `json:"net_total"`
	AdjustmentsTotal decimal.Decimal `json:"adjustments_total"`
	PayableTotal     decimal.Decimal `json:"payable_total"`
}

// ReportRow is one settled order in the seller finance report.
type ReportRow struct {
	OrderFinanceID  uuid.UUID       `json:"order_finance_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	SellerNetAmount decimal.Decimal `json:"seller_net_amount"`
	Currency        string          `json:"currency"`
	FinalizedAt     time.Time       `json:"finalized_at"`
}

// ReportRequest selects and orders the seller finance report.
type ReportRequest struct {
	SellerID  uuid.UUID
	SortField string
	SortDesc  bool
	Page      int
	PageSize  int
}
