package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// Order is the aggregate root of the marketplace lifecycle. Rows are never
// deleted; terminal statuses are final.
type Order struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID      uuid.UUID          `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID     uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index"`
	Status       enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'pending_seller_approval'"`
	DeliveryType enums.DeliveryType `gorm:"column:delivery_type;type:delivery_type;not null;default:'pickup'"`
	Currency     string             `gorm:"column:currency;type:text;not null;default:'EUR'"`
	TotalAmount  decimal.Decimal    `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Items        []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
