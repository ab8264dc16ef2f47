package lots

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

func setupLotsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS production_lots (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  food_id TEXT NOT NULL,
  produced_at DATETIME NOT NULL,
  quantity_produced INTEGER NOT NULL,
  quantity_available INTEGER NOT NULL CHECK (quantity_available >= 0),
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_item_lot_allocations (
  id TEXT PRIMARY KEY,
  order_item_id TEXT NOT NULL,
  lot_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  status TEXT NOT NULL,
  delivery_type TEXT NOT NULL,
  currency TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  food_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  payload TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  attempt_count INTEGER NOT NULL DEFAULT 0,
  next_attempt_at DATETIME NOT NULL,
  last_error TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM order_item_lot_allocations")
		db.Exec("DELETE FROM order_items")
		db.Exec("DELETE FROM orders")
		db.Exec("DELETE FROM production_lots")
		db.Exec("DELETE FROM outbox_events")
	})
	return db
}

func seedLot(t *testing.T, db *gorm.DB, sellerID, foodID uuid.UUID, producedAt time.Time, available int, status enums.LotStatus) *models.ProductionLot {
	t.Helper()
	lot := &models.ProductionLot{
		ID:                uuid.New(),
		SellerID:          sellerID,
		FoodID:            foodID,
		ProducedAt:        producedAt,
		QuantityProduced:  available,
		QuantityAvailable: available,
		Status:            status,
	}
	require.NoError(t, db.Create(lot).Error)
	return lot
}

func TestRepositoryListActiveForUpdateOrdersByProduction(t *testing.T) {
	db := setupLotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	sellerID := uuid.New()
	foodID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	newest := seedLot(t, db, sellerID, foodID, base, 5, enums.LotStatusActive)
	oldest := seedLot(t, db, sellerID, foodID, base.Add(-48*time.Hour), 5, enums.LotStatusActive)
	middle := seedLot(t, db, sellerID, foodID, base.Add(-24*time.Hour), 5, enums.LotStatusActive)
	seedLot(t, db, sellerID, foodID, base.Add(-72*time.Hour), 5, enums.LotStatusRecalled)
	seedLot(t, db, sellerID, uuid.New(), base.Add(-72*time.Hour), 5, enums.LotStatusActive)

	rows, err := repo.ListActiveForUpdate(ctx, sellerID, foodID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)
	assert.Equal(t, newest.ID, rows[2].ID)
}

func TestRepositoryDecrementAvailableGuardsFloor(t *testing.T) {
	db := setupLotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	lot := seedLot(t, db, uuid.New(), uuid.New(), time.Now(), 3, enums.LotStatusActive)

	require.NoError(t, repo.DecrementAvailable(ctx, lot.ID, 2))

	err := repo.DecrementAvailable(ctx, lot.ID, 2)
	require.ErrorIs(t, err, ErrStockConflict)

	var stored models.ProductionLot
	require.NoError(t, db.First(&stored, "id = ?", lot.ID).Error)
	assert.Equal(t, 1, stored.QuantityAvailable)
}

func TestRepositoryListOrdersUsingLot(t *testing.T) {
	db := setupLotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	lot := seedLot(t, db, uuid.New(), uuid.New(), time.Now(), 10, enums.LotStatusActive)

	order := &models.Order{
		ID:           uuid.New(),
		BuyerID:      uuid.New(),
		SellerID:     lot.SellerID,
		Status:       enums.OrderStatusPreparing,
		DeliveryType: enums.DeliveryTypePickup,
		Currency:     "EUR",
		TotalAmount:  decimal.NewFromInt(20),
	}
	require.NoError(t, db.Create(order).Error)
	item := &models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		FoodID:    lot.FoodID,
		Name:      "Quiche",
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(10),
		LineTotal: decimal.NewFromInt(20),
	}
	require.NoError(t, db.Create(item).Error)
	require.NoError(t, repo.InsertAllocations(ctx, []models.OrderItemLotAllocation{{
		OrderItemID: item.ID,
		LotID:       lot.ID,
		Quantity:    2,
	}}))

	affected, err := repo.ListOrdersUsingLot(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, order.ID, affected[0].OrderID)
	assert.Equal(t, order.BuyerID, affected[0].BuyerID)
	assert.Equal(t, 2, affected[0].Quantity)
}
