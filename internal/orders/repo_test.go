package orders

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
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_seller_approval',
  delivery_type TEXT NOT NULL DEFAULT 'pickup',
  currency TEXT NOT NULL DEFAULT 'EUR',
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
CREATE TABLE IF NOT EXISTS order_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  actor_user_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  from_status TEXT,
  to_status TEXT NOT NULL,
  reason TEXT,
  payload TEXT,
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
		db.Exec("DELETE FROM order_events")
		db.Exec("DELETE FROM order_items")
		db.Exec("DELETE FROM orders")
		db.Exec("DELETE FROM outbox_events")
	})
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID, sellerID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:           uuid.New(),
		BuyerID:      buyerID,
		SellerID:     sellerID,
		Status:       status,
		DeliveryType: enums.DeliveryTypePickup,
		Currency:     "EUR",
		TotalAmount:  decimal.NewFromFloat(24.50),
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, &models.Order{
		BuyerID:      uuid.New(),
		SellerID:     uuid.New(),
		Status:       enums.OrderStatusPendingSellerApproval,
		DeliveryType: enums.DeliveryTypeDelivery,
		Currency:     "EUR",
		TotalAmount:  decimal.NewFromFloat(18.00),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID)

	require.NoError(t, repo.CreateItems(ctx, []models.OrderItem{{
		OrderID:   order.ID,
		FoodID:    uuid.New(),
		Name:      "Lentil soup",
		Quantity:  2,
		UnitPrice: decimal.NewFromFloat(9.00),
		LineTotal: decimal.NewFromFloat(18.00),
	}}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingSellerApproval, found.Status)

	items, err := repo.FindItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Lentil soup", items[0].Name)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateStatusAndEvents(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPendingSellerApproval, time.Now())

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusSellerApproved))
	require.NoError(t, repo.AppendEvent(ctx, &models.OrderEvent{
		OrderID:     order.ID,
		ActorUserID: order.SellerID,
		ActorRole:   enums.RoleSeller,
		FromStatus:  enums.OrderStatusPendingSellerApproval,
		ToStatus:    enums.OrderStatusSellerApproved,
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSellerApproved, found.Status)

	events, err := repo.ListEvents(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.OrderStatusSellerApproved, events[0].ToStatus)
}

func TestRepositoryListByBuyerFiltersAndPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	buyerID := uuid.New()
	sellerID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedOrder(t, db, buyerID, sellerID, enums.OrderStatusPaid, base.Add(-3*time.Hour))
	seedOrder(t, db, buyerID, sellerID, enums.OrderStatusCompleted, base.Add(-2*time.Hour))
	newest := seedOrder(t, db, buyerID, sellerID, enums.OrderStatusPaid, base.Add(-time.Hour))
	seedOrder(t, db, uuid.New(), sellerID, enums.OrderStatusPaid, base)

	paid := enums.OrderStatusPaid
	list, err := repo.ListByBuyer(ctx, buyerID, pagination.Params{}, OrderFilters{Status: &paid})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, newest.ID, list.Orders[0].ID)
	assert.Empty(t, list.NextCursor)

	page, err := repo.ListByBuyer(ctx, buyerID, pagination.Params{Limit: 2}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := repo.ListByBuyer(ctx, buyerID, pagination.Params{Limit: 2, Cursor: page.NextCursor}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Empty(t, rest.NextCursor)
	assert.NotEqual(t, page.Orders[0].ID, rest.Orders[0].ID)
	assert.NotEqual(t, page.Orders[1].ID, rest.Orders[0].ID)
}

func TestRepositoryListBySellerScopesRows(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	sellerID := uuid.New()

	seedOrder(t, db, uuid.New(), sellerID, enums.OrderStatusPaid, time.Now())
	seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPaid, time.Now())

	list, err := repo.ListBySeller(ctx, sellerID, pagination.Params{}, OrderFilters{})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)
}
