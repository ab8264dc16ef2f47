package finance

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

	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/orders"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
)

func setupFinanceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS commission_settings (
  id TEXT PRIMARY KEY,
  rate NUMERIC NOT NULL,
  effective_from DATETIME NOT NULL,
  created_by TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_finance (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  gross_amount NUMERIC NOT NULL,
  commission_rate NUMERIC NOT NULL,
  commission_amount NUMERIC NOT NULL,
  seller_net_amount NUMERIC NOT NULL,
  commission_version_id TEXT NOT NULL,
  currency TEXT NOT NULL,
  finalized_at DATETIME NOT NULL,
  created_at DATETIME,
  CONSTRAINT ux_order_finance_order UNIQUE (order_id)
);`, `
CREATE TABLE IF NOT EXISTS finance_adjustments (
  id TEXT PRIMARY KEY,
  order_finance_id TEXT NOT NULL,
  party TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  reason TEXT NOT NULL,
  source_type TEXT NOT NULL,
  source_id TEXT,
  created_by TEXT NOT NULL,
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
		db.Exec("DELETE FROM finance_adjustments")
		db.Exec("DELETE FROM order_finance")
		db.Exec("DELETE FROM commission_settings")
		db.Exec("DELETE FROM outbox_events")
	})
	return db
}

func newFinanceService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(db, NewRepository(db), outbox.NewService(outbox.NewRepository(db), nil))
	require.NoError(t, err)
	return svc
}

func seedCommission(t *testing.T, db *gorm.DB, rate string, effectiveFrom time.Time) *models.CommissionSetting {
	t.Helper()
	setting := &models.CommissionSetting{
		ID:            uuid.New(),
		Rate:          decimal.RequireFromString(rate),
		EffectiveFrom: effectiveFrom,
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, db.Create(setting).Error)
	return setting
}

func testOrder(totalAmount string) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		Status:      enums.OrderStatusDelivered,
		Currency:    "EUR",
		TotalAmount: decimal.RequireFromString(totalAmount),
	}
}

func buyerActor(order *models.Order) orders.Actor {
	return orders.Actor{UserID: order.BuyerID, Role: enums.RoleBuyer}
}

func TestFinalizeTxPinsActiveCommissionRate(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)
	now := time.Now().UTC()

	seedCommission(t, db, "0.20", now.Add(-48*time.Hour))
	active := seedCommission(t, db, "0.12", now.Add(-time.Hour))
	seedCommission(t, db, "0.15", now.Add(24*time.Hour))

	order := testOrder("300.00")
	var snapshot *models.OrderFinance
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		snapshot, err = svc.FinalizeTx(context.Background(), tx, order, buyerActor(order))
		return err
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.12").Equal(snapshot.CommissionRate))
	assert.True(t, decimal.RequireFromString("36").Equal(snapshot.CommissionAmount))
	assert.True(t, decimal.RequireFromString("264").Equal(snapshot.SellerNetAmount))
	assert.Equal(t, active.ID, snapshot.CommissionVersionID)
	assert.Equal(t, "EUR", snapshot.Currency)

	var events []models.OutboxEvent
	require.NoError(t, db.Where("event_type = ?", enums.EventFinanceSnapshotFinalized).Find(&events).Error)
	require.Len(t, events, 1)
}

func TestFinalizeTxIsIdempotent(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)
	seedCommission(t, db, "0.12", time.Now().Add(-time.Hour))
	order := testOrder("100.00")

	var first, second *models.OrderFinance
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = svc.FinalizeTx(context.Background(), tx, order, buyerActor(order))
		return err
	}))

	// rate change after completion must not alter the snapshot
	seedCommission(t, db, "0.15", time.Now().Add(-time.Minute))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = svc.FinalizeTx(context.Background(), tx, order, buyerActor(order))
		return err
	}))

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CommissionRate.Equal(second.CommissionRate))

	var count int64
	require.NoError(t, db.Model(&models.OrderFinance{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventFinanceSnapshotFinalized).
		Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestFinalizeTxFailsWithoutCommissionSetting(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)
	order := testOrder("100.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.FinalizeTx(context.Background(), tx, order, buyerActor(order))
		return err
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal))
}

func TestAddAdjustmentTx(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)
	seedCommission(t, db, "0.10", time.Now().Add(-time.Hour))
	order := testOrder("50.00")

	var snapshot *models.OrderFinance
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		snapshot, err = svc.FinalizeTx(context.Background(), tx, order, buyerActor(order))
		return err
	}))

	adminID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.AddAdjustmentTx(context.Background(), tx, AdjustmentInput{
			OrderFinanceID: snapshot.ID,
			Party:          enums.LiabilityPartySeller,
			Amount:         decimal.RequireFromString("-10.00"),
			Reason:         "partial refund",
			SourceType:     "dispute",
			CreatedBy:      adminID,
		})
		return err
	})
	require.NoError(t, err)

	stored, adjustments, err := svc.GetOrderFinance(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, stored.ID)
	require.Len(t, adjustments, 1)
	assert.True(t, decimal.RequireFromString("-10.00").Equal(adjustments[0].Amount))
	assert.Equal(t, enums.LiabilityPartySeller, adjustments[0].Party)

	// snapshot untouched
	assert.True(t, snapshot.SellerNetAmount.Equal(stored.SellerNetAmount))
}

func TestAddAdjustmentTxValidation(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.AddAdjustmentTx(context.Background(), tx, AdjustmentInput{
			OrderFinanceID: uuid.New(),
			Party:          enums.LiabilityPartySeller,
			Amount:         decimal.Zero,
			Reason:         "x",
			CreatedBy:      uuid.New(),
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.AddAdjustmentTx(context.Background(), tx, AdjustmentInput{
			OrderFinanceID: uuid.New(),
			Amount:         decimal.RequireFromString("-5.00"),
			Reason:         "missing party",
			CreatedBy:      uuid.New(),
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSetCommissionRate(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)

	setting, err := svc.SetCommissionRate(context.Background(), SetCommissionInput{
		Rate:      decimal.RequireFromString("0.15"),
		CreatedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.False(t, setting.EffectiveFrom.IsZero())

	_, err = svc.SetCommissionRate(context.Background(), SetCommissionInput{
		Rate:      decimal.RequireFromString("1.10"),
		CreatedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	history, err := svc.ListCommissionHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSellerSummaryAggregates(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)
	seedCommission(t, db, "0.10", time.Now().Add(-time.Hour))
	sellerID := uuid.New()

	var snapshots []*models.OrderFinance
	for _, total := range []string{"100.00", "50.00"} {
		order := testOrder(total)
		order.SellerID = sellerID
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			snapshot, err := svc.FinalizeTx(context.Background(), tx, order, buyerActor(order))
			snapshots = append(snapshots, snapshot)
			return err
		}))
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.AddAdjustmentTx(context.Background(), tx, AdjustmentInput{
			OrderFinanceID: snapshots[0].ID,
			Party:          enums.LiabilityPartySeller,
			Amount:         decimal.RequireFromString("-20.00"),
			Reason:         "chargeback",
			SourceType:     "dispute",
			CreatedBy:      uuid.New(),
		})
		return err
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.AddAdjustmentTx(context.Background(), tx, AdjustmentInput{
			OrderFinanceID: snapshots[0].ID,
			Party:          enums.LiabilityPartyPlatform,
			Amount:         decimal.RequireFromString("-30.00"),
			Reason:         "platform goodwill refund",
			SourceType:     "dispute",
			CreatedBy:      uuid.New(),
		})
		return err
	}))

	summary, err := svc.SellerSummary(context.Background(), sellerID, SummaryFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.OrderCount)
	assert.True(t, decimal.RequireFromString("150").Equal(summary.GrossTotal))
	assert.True(t, decimal.RequireFromString("15").Equal(summary.CommissionTotal))
	assert.True(t, decimal.RequireFromString("135").Equal(summary.NetTotal))
	assert.True(t, decimal.RequireFromString("-20").Equal(summary.AdjustmentsTotal))
	assert.True(t, decimal.RequireFromString("115").Equal(summary.PayableTotal))
}

func TestSellerReportSortAllowlist(t *testing.T) {
	db := setupFinanceTestDB(t)
	svc := newFinanceService(t, db)
	seedCommission(t, db, "0.10", time.Now().Add(-time.Hour))
	sellerID := uuid.New()

	for _, total := range []string{"30.00", "10.00", "20.00"} {
		order := testOrder(total)
		order.SellerID = sellerID
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.FinalizeTx(context.Background(), tx, order, buyerActor(order))
			return err
		}))
	}

	rows, err := svc.SellerReport(context.Background(), ReportRequest{
		SellerID:  sellerID,
		SortField: "gross_amount",
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].GrossAmount.LessThan(rows[1].GrossAmount))
	assert.True(t, rows[1].GrossAmount.LessThan(rows[2].GrossAmount))

	_, err = svc.SellerReport(context.Background(), ReportRequest{
		SellerID:  sellerID,
		SortField: "seller_net_amount; DROP TABLE order_finance",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeSortFieldInvalid))
}
