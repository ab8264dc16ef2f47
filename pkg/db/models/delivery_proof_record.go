package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// DeliveryProofRecord stores the hashed handover PIN for a delivery order.
// The plaintext PIN never touches the database.
type DeliveryProofRecord struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_delivery_proof_order"`
	PinHash      string                    `gorm:"column:pin_hash;type:text;not null"`
	Status       enums.DeliveryProofStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ExpiresAt    time.Time                 `gorm:"column:expires_at;not null"`
	VerifiedAt   *time.Time                `gorm:"column:verified_at"`
	VerifiedBy   *uuid.UUID                `gorm:"column:verified_by;type:uuid"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
