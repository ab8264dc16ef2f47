package lots

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// ErrStockConflict surfaces a decrement that would push availability
// negative despite the row lock, e.g. a concurrent recall.
var ErrStockConflict = errors.New("lot stock conflict")

type repository struct {
	db *gorm.DB
}

// NewRepository builds a lots repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lot *models.ProductionLot) (*models.ProductionLot, error) {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(lot).Error; err != nil {
		return nil, err
	}
	return lot, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductionLot, error) {
	var lot models.ProductionLot
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&lot).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductionLot, error) {
	var lot models.ProductionLot
	err := dbpkg.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&lot).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ProductionLot, error) {
	var rows []models.ProductionLot
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("produced_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveForUpdate locks the FEFO candidate set for one food item:
// active lots, oldest production first.
func (r *repository) ListActiveForUpdate(ctx context.Context, sellerID, foodID uuid.UUID) ([]models.ProductionLot, error) {
	var rows []models.ProductionLot
	err := dbpkg.ForUpdate(r.db.WithContext(ctx)).
		Where("seller_id = ?", sellerID).
		Where("food_id = ?", foodID).
		Where("status = ?", enums.LotStatusActive).
		Order("produced_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementAvailable subtracts quantity guarded by a floor check so the
// column can never go negative even under driver-level races.
func (r *repository) DecrementAvailable(ctx context.Context, lotID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.ProductionLot{}).
		Where("id = ?", lotID).
		Where("quantity_available >= ?", quantity).
		Update("quantity_available", gorm.Expr("quantity_available - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

func (r *repository) SetAvailable(ctx context.Context, lotID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductionLot{}).
		Where("id = ?", lotID).
		Update("quantity_available", quantity).Error
}

func (r *repository) MarkRecalled(ctx context.Context, lotID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductionLot{}).
		Where("id = ?", lotID).
		Update("status", enums.LotStatusRecalled).Error
}

func (r *repository) InsertAllocations(ctx context.Context, rows []models.OrderItemLotAllocation) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ListOrdersUsingLot joins allocations back to orders so recalls can be
// traced to affected buyers.
func (r *repository) ListOrdersUsingLot(ctx context.Context, lotID uuid.UUID) ([]AffectedOrder, error) {
	var rows []AffectedOrder
	err := r.db.WithContext(ctx).
		Table("order_item_lot_allocations").
		Select("orders.id AS order_id, orders.buyer_id, orders.status, order_item_lot_allocations.quantity, orders.created_at").
		Joins("JOIN order_items ON order_items.id = order_item_lot_allocations.order_item_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_item_lot_allocations.lot_id = ?", lotID).
		Order("orders.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
