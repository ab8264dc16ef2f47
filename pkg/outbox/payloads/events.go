package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// OrderCreatedEvent signals a new order awaiting seller approval.
type OrderCreatedEvent struct {
	OrderID      uuid.UUID          `json:"order_id"`
	BuyerID      uuid.UUID          `json:"buyer_id"`
	SellerID     uuid.UUID          `json:"seller_id"`
	DeliveryType enums.DeliveryType `json:"delivery_type"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Currency     string             `json:"currency"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	SellerID   uuid.UUID         `json:"seller_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ActorRole  enums.ActorRole   `json:"actor_role"`
	Reason     string            `json:"reason,omitempty"`
}

// OrderCompletedEvent surfaces the settlement fields when the buyer confirms.
type OrderCompletedEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	SellerNetAmount decimal.Decimal `json:"seller_net_amount"`
	CompletedAt     time.Time       `json:"completed_at"`
}

// PaymentConfirmedEvent is emitted when a verified webhook marks an order paid.
type PaymentConfirmedEvent struct {
	OrderID             uuid.UUID       `json:"order_id"`
	PaymentAttemptID    uuid.UUID       `json:"payment_attempt_id"`
	ProviderReferenceID string          `json:"provider_reference_id"`
	Amount              decimal.Decimal `json:"amount"`
}

// FinanceSnapshotFinalizedEvent reports the immutable commission snapshot.
type FinanceSnapshotFinalizedEvent struct {
	OrderFinanceID      uuid.UUID       `json:"order_finance_id"`
	OrderID             uuid.UUID       `json:"order_id"`
	SellerID            uuid.UUID       `json:"seller_id"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	CommissionRate      decimal.Decimal `json:"commission_rate"`
	CommissionAmount    decimal.Decimal `json:"commission_amount"`
	SellerNetAmount     decimal.Decimal `json:"seller_net_amount"`
	CommissionVersionID uuid.UUID       `json:"commission_version_id"`
}

// DisputeOpenedEvent signals a new provider dispute against a paid order.
type DisputeOpenedEvent struct {
	DisputeID      uuid.UUID       `json:"dispute_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	ProviderCaseID string          `json:"provider_case_id"`
	DisputedAmount decimal.Decimal `json:"disputed_amount"`
}

// DisputeResolvedEvent carries the final verdict and liability split.
type DisputeResolvedEvent struct {
	DisputeID      uuid.UUID            `json:"dispute_id"`
	OrderID        uuid.UUID            `json:"order_id"`
	Status         enums.DisputeStatus  `json:"status"`
	LiabilityParty *enums.LiabilityParty `json:"liability_party,omitempty"`
	ResolvedAt     time.Time            `json:"resolved_at"`
}

// LotRecalledEvent tells downstream systems a batch was pulled from sale.
type LotRecalledEvent struct {
	LotID      uuid.UUID `json:"lot_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	FoodID     uuid.UUID `json:"food_id"`
	RecalledAt time.Time `json:"recalled_at"`
}
