package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// PaymentDisputeCase tracks a chargeback or dispute raised against a paid
// order. Resolution writes finance adjustments exactly once.
type PaymentDisputeCase struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	ProviderCaseID  string               `gorm:"column:provider_case_id;type:text;not null;uniqueIndex:ux_dispute_cases_provider"`
	Status          enums.DisputeStatus  `gorm:"column:status;type:dispute_status;not null;default:'opened'"`
	DisputedAmount  decimal.Decimal      `gorm:"column:disputed_amount;type:numeric(12,2);not null"`
	LiabilityParty  *enums.LiabilityParty `gorm:"column:liability_party;type:text"`
	ResolutionNote  *string              `gorm:"column:resolution_note"`
	ResolvedBy      *uuid.UUID           `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt      *time.Time           `gorm:"column:resolved_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
