package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// AllergenDisclosureRecord is the buyer's acknowledgement of allergen
// information for an order, captured per phase.
type AllergenDisclosureRecord struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_disclosures_order_phase,priority:1"`
	Phase          enums.DisclosurePhase `gorm:"column:phase;type:text;not null;uniqueIndex:ux_disclosures_order_phase,priority:2"`
	BuyerID        uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null"`
	AcknowledgedAt time.Time             `gorm:"column:acknowledged_at;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
