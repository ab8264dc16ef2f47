package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	AppendEvent(ctx context.Context, event *models.OrderEvent) error
	ListEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
}

// ComplianceGate blocks seller-side transitions when the seller's profile
// is suspended or rejected.
type ComplianceGate interface {
	EnsureSellerAllowed(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) error
}

// DisclosureGate requires the buyer's allergen acknowledgement for a phase.
type DisclosureGate interface {
	EnsureAcknowledged(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, phase enums.DisclosurePhase) error
}

// DeliveryProofGate requires a verified handover PIN before a delivery
// order can be confirmed as delivered.
type DeliveryProofGate interface {
	EnsureVerified(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// LotAllocator reserves stock for every order line when preparation starts.
type LotAllocator interface {
	AllocateTx(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) error
}

// FinanceFinalizer writes the immutable settlement snapshot at completion.
type FinanceFinalizer interface {
	FinalizeTx(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) (*models.OrderFinance, error)
}
