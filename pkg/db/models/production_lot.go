package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// ProductionLot is a physical batch of a food item. quantity_available is
// decremented by FEFO allocation and must never go negative.
type ProductionLot struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID          uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	FoodID            uuid.UUID       `gorm:"column:food_id;type:uuid;not null;index"`
	ProducedAt        time.Time       `gorm:"column:produced_at;not null"`
	QuantityProduced  int             `gorm:"column:quantity_produced;not null"`
	QuantityAvailable int             `gorm:"column:quantity_available;not null;check:quantity_available >= 0"`
	Status            enums.LotStatus `gorm:"column:status;type:lot_status;not null;default:'active'"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
