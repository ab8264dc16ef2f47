package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderFinance is the immutable settlement snapshot captured exactly once at
// order completion. The unique index on order_id makes the insert idempotent.
type OrderFinance struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_finance_order"`
	SellerID            uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	GrossAmount         decimal.Decimal `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	CommissionRate      decimal.Decimal `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	CommissionAmount    decimal.Decimal `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	SellerNetAmount     decimal.Decimal `gorm:"column:seller_net_amount;type:numeric(12,2);not null"`
	CommissionVersionID uuid.UUID       `gorm:"column:commission_version_id;type:uuid;not null"`
	Currency            string          `gorm:"column:currency;type:text;not null"`
	FinalizedAt         time.Time       `gorm:"column:finalized_at;not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderFinance) TableName() string {
	return "order_finance"
}
