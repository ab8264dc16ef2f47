package lots

import (
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// CreateLotInput registers a freshly produced batch for a seller's food item.
type CreateLotInput struct {
	SellerID   uuid.UUID
	FoodID     uuid.UUID
	ProducedAt time.Time
	Quantity   int
}

// AdjustLotInput changes the remaining quantity of a lot by a signed delta,
// covering spoilage write-offs and counting corrections.
type AdjustLotInput struct {
	SellerID uuid.UUID
	LotID    uuid.UUID
	Delta    int
	Reason   string
}

// RecallLotInput pulls a batch from sale.
type RecallLotInput struct {
	SellerID uuid.UUID
	LotID    uuid.UUID
	Reason   string
}

// LotView is the seller-facing representation of a production lot.
type LotView struct {
	ID                uuid.UUID       `json:"id"`
	FoodID            uuid.UUID       `json:"food_id"`
	ProducedAt        time.Time       `json:"produced_at"`
	QuantityProduced  int             `json:"quantity_produced"`
	QuantityAvailable int             `json:"quantity_available"`
	Status            enums.LotStatus `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// AffectedOrder names one order that consumed stock from a given lot.
type AffectedOrder struct {
	OrderID   uuid.UUID         `json:"order_id"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	Status    enums.OrderStatus `json:"status"`
	Quantity  int               `json:"quantity"`
	CreatedAt time.Time         `json:"created_at"`
}

type stockShortage struct {
	FoodID    uuid.UUID `json:"food_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}
