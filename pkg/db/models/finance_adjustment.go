package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// FinanceAdjustment is a signed correction row referencing an OrderFinance
// snapshot. The snapshot itself is never mutated. Party records who absorbs
// the correction; seller payouts sum only seller-party rows.
type FinanceAdjustment struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderFinanceID uuid.UUID            `gorm:"column:order_finance_id;type:uuid;not null;index"`
	Party          enums.LiabilityParty `gorm:"column:party;type:text;not null"`
	Amount         decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	Reason         string               `gorm:"column:reason;type:text;not null"`
	SourceType     string               `gorm:"column:source_type;type:text;not null"`
	SourceID       *uuid.UUID           `gorm:"column:source_id;type:uuid"`
	CreatedBy      uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
}
