package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionSetting is a versioned commission rate. Finance snapshots pin
// the version that was effective when the order completed.
type CommissionSetting struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Rate          decimal.Decimal `gorm:"column:rate;type:numeric(6,4);not null"`
	EffectiveFrom time.Time       `gorm:"column:effective_from;not null;index"`
	CreatedBy     uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
