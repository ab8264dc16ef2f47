package lots

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
)

// Repository defines persistence operations for production lots and their
// allocations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lot *models.ProductionLot) (*models.ProductionLot, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductionLot, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductionLot, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ProductionLot, error)
	ListActiveForUpdate(ctx context.Context, sellerID, foodID uuid.UUID) ([]models.ProductionLot, error)
	DecrementAvailable(ctx context.Context, lotID uuid.UUID, quantity int) error
	SetAvailable(ctx context.Context, lotID uuid.UUID, quantity int) error
	MarkRecalled(ctx context.Context, lotID uuid.UUID) error
	InsertAllocations(ctx context.Context, rows []models.OrderItemLotAllocation) error
	ListOrdersUsingLot(ctx context.Context, lotID uuid.UUID) ([]AffectedOrder, error)
}
