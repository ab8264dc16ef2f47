package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItemLotAllocation links an order item to the lot(s) that fulfilled
// it. Created only during the preparing transition, immutable afterward.
type OrderItemLotAllocation struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null;index"`
	LotID       uuid.UUID `gorm:"column:lot_id;type:uuid;not null;index"`
	Quantity    int       `gorm:"column:quantity;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
