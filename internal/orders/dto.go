package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// Actor identifies the authenticated principal driving an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// SystemActor is used for transitions triggered by verified provider
// callbacks rather than a client request.
func SystemActor() Actor {
	return Actor{UserID: uuid.Nil, Role: enums.RoleSystem}
}

// CreateOrderItemInput is one requested line of a new order.
type CreateOrderItemInput struct {
	FoodID    uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrderInput captures a buyer's checkout submission.
type CreateOrderInput struct {
	Actor        Actor
	SellerID     uuid.UUID
	DeliveryType enums.DeliveryType
	Currency     string
	Items        []CreateOrderItemInput
}

// TransitionInput carries the shared fields of every lifecycle mutation.
type TransitionInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Reason  *string
}

// OrderFilters describe the inputs supported by the order lists.
type OrderFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderSummary exposes the aggregated fields returned in list endpoints.
type OrderSummary struct {
	ID           uuid.UUID          `json:"id"`
	Status       enums.OrderStatus  `json:"status"`
	DeliveryType enums.DeliveryType `json:"delivery_type"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Currency     string             `json:"currency"`
	TotalItems   int                `json:"total_items"`
	CreatedAt    time.Time          `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is the full order view including its lines.
type OrderDetail struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}
