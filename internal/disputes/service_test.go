package disputes

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

	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/finance"
	dbpkg "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupDisputesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
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
CREATE TABLE IF NOT EXISTS payment_dispute_cases (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  provider_case_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'opened',
  disputed_amount NUMERIC NOT NULL,
  liability_party TEXT,
  resolution_note TEXT,
  resolved_by TEXT,
  resolved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS ux_dispute_cases_live
  ON payment_dispute_cases (order_id)
  WHERE status IN ('opened', 'under_review');`, `
CREATE TABLE IF NOT EXISTS order_finance (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  seller_id TEXT NOT NULL,
  gross_amount NUMERIC NOT NULL,
  commission_rate NUMERIC NOT NULL,
  commission_amount NUMERIC NOT NULL,
  seller_net_amount NUMERIC NOT NULL,
  commission_version_id TEXT NOT NULL,
  currency TEXT NOT NULL,
  finalized_at DATETIME NOT NULL,
  created_at DATETIME
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
CREATE TABLE IF NOT EXISTS commission_settings (
  id TEXT PRIMARY KEY,
  rate NUMERIC NOT NULL,
  effective_from DATETIME NOT NULL,
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
		db.Exec("DELETE FROM payment_dispute_cases")
		db.Exec("DELETE FROM orders")
		db.Exec("DELETE FROM outbox_events")
	})
	return db
}

type disputeFixture struct {
	db  *gorm.DB
	svc Service
}

func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()
	db := setupDisputesTestDB(t)
	outboxSvc := outbox.NewService(outbox.NewRepository(db), nil)
	ledger, err := finance.NewService(db, finance.NewRepository(db), outboxSvc)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, outboxSvc, ledger)
	require.NoError(t, err)
	return &disputeFixture{db: db, svc: svc}
}

func (f *disputeFixture) seedOrder(t *testing.T, status enums.OrderStatus, total string) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:           uuid.New(),
		BuyerID:      uuid.New(),
		SellerID:     uuid.New(),
		Status:       status,
		DeliveryType: enums.DeliveryTypePickup,
		Currency:     "EUR",
		TotalAmount:  decimal.RequireFromString(total),
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func (f *disputeFixture) seedSnapshot(t *testing.T, order *models.Order) *models.OrderFinance {
	t.Helper()
	snapshot := &models.OrderFinance{
		ID:                  uuid.New(),
		OrderID:             order.ID,
		SellerID:            order.SellerID,
		GrossAmount:         order.TotalAmount,
		CommissionRate:      decimal.RequireFromString("0.10"),
		CommissionAmount:    order.TotalAmount.Mul(decimal.RequireFromString("0.10")).Round(2),
		SellerNetAmount:     order.TotalAmount.Mul(decimal.RequireFromString("0.90")).Round(2),
		CommissionVersionID: uuid.New(),
		Currency:            order.Currency,
		FinalizedAt:         time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(snapshot).Error)
	return snapshot
}

func (f *disputeFixture) open(t *testing.T, order *models.Order, amount string) *models.PaymentDisputeCase {
	t.Helper()
	dispute, err := f.svc.Open(context.Background(), OpenDisputeInput{
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		DisputedAmount: decimal.RequireFromString(amount),
		Reason:         "order never arrived",
	})
	require.NoError(t, err)
	return dispute
}

func TestOpenDispute(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCompleted, "60.00")

	dispute := f.open(t, order, "60.00")
	assert.Equal(t, enums.DisputeStatusOpened, dispute.Status)
	assert.NotEmpty(t, dispute.ProviderCaseID)

	var events []models.OutboxEvent
	require.NoError(t, f.db.Where("event_type = ?", enums.EventDisputeOpened).Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestOpenDisputeGuards(t *testing.T) {
	f := newDisputeFixture(t)

	unpaid := f.seedOrder(t, enums.OrderStatusAwaitingPayment, "60.00")
	_, err := f.svc.Open(context.Background(), OpenDisputeInput{
		OrderID:        unpaid.ID,
		BuyerID:        unpaid.BuyerID,
		DisputedAmount: decimal.RequireFromString("10.00"),
		Reason:         "x",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderInvalidState))

	order := f.seedOrder(t, enums.OrderStatusPaid, "60.00")
	_, err = f.svc.Open(context.Background(), OpenDisputeInput{
		OrderID:        order.ID,
		BuyerID:        uuid.New(),
		DisputedAmount: decimal.RequireFromString("10.00"),
		Reason:         "x",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbiddenOrderScope))

	_, err = f.svc.Open(context.Background(), OpenDisputeInput{
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		DisputedAmount: decimal.RequireFromString("100.00"),
		Reason:         "x",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	f.open(t, order, "60.00")
	_, err = f.svc.Open(context.Background(), OpenDisputeInput{
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		DisputedAmount: decimal.RequireFromString("60.00"),
		Reason:         "second attempt",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestLiveDisputeIndexBlocksSecondRow(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPaid, "60.00")
	repo := NewRepository(f.db)

	_, err := repo.Create(context.Background(), &models.PaymentDisputeCase{
		OrderID:        order.ID,
		ProviderCaseID: "case-live-1",
		Status:         enums.DisputeStatusOpened,
		DisputedAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	// a second live row for the same order violates ux_dispute_cases_live
	_, err = repo.Create(context.Background(), &models.PaymentDisputeCase{
		OrderID:        order.ID,
		ProviderCaseID: "case-live-2",
		Status:         enums.DisputeStatusUnderReview,
		DisputedAmount: decimal.RequireFromString("10.00"),
	})
	require.Error(t, err)
	assert.True(t, dbpkg.IsUniqueViolation(err, ""))

	// resolved rows fall outside the partial index
	other := f.seedOrder(t, enums.OrderStatusPaid, "60.00")
	_, err = repo.Create(context.Background(), &models.PaymentDisputeCase{
		OrderID:        other.ID,
		ProviderCaseID: "case-done-1",
		Status:         enums.DisputeStatusLost,
		DisputedAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), &models.PaymentDisputeCase{
		OrderID:        other.ID,
		ProviderCaseID: "case-live-3",
		Status:         enums.DisputeStatusOpened,
		DisputedAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
}

func TestResolveWonAgainstSellerWritesAdjustment(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCompleted, "100.00")
	snapshot := f.seedSnapshot(t, order)
	dispute := f.open(t, order, "100.00")

	seller := enums.LiabilityPartySeller
	resolved, err := f.svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID:      dispute.ID,
		Status:         enums.DisputeStatusWon,
		LiabilityParty: &seller,
		ResolutionNote: "buyer evidence conclusive",
		ResolvedBy:     uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusWon, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	var adjustments []models.FinanceAdjustment
	require.NoError(t, f.db.Where("order_finance_id = ?", snapshot.ID).Find(&adjustments).Error)
	require.Len(t, adjustments, 1)
	assert.True(t, decimal.RequireFromString("-100.00").Equal(adjustments[0].Amount))
	assert.Equal(t, enums.LiabilityPartySeller, adjustments[0].Party)
	assert.Equal(t, "dispute", adjustments[0].SourceType)

	// snapshot untouched
	var stored models.OrderFinance
	require.NoError(t, f.db.First(&stored, "id = ?", snapshot.ID).Error)
	assert.True(t, snapshot.SellerNetAmount.Equal(stored.SellerNetAmount))
}

func TestResolveSharedSplitsLiability(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCompleted, "80.00")
	snapshot := f.seedSnapshot(t, order)
	dispute := f.open(t, order, "80.00")

	resolved, err := f.svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID: dispute.ID,
		Status:    enums.DisputeStatusShared,
		LiabilityRatio: &LiabilityRatio{
			Seller:   decimal.RequireFromString("0.5"),
			Platform: decimal.RequireFromString("0.5"),
		},
		ResolvedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusShared, resolved.Status)

	var adjustments []models.FinanceAdjustment
	require.NoError(t, f.db.Where("order_finance_id = ?", snapshot.ID).Order("party ASC").Find(&adjustments).Error)
	require.Len(t, adjustments, 2)
	assert.Equal(t, enums.LiabilityPartyPlatform, adjustments[0].Party)
	assert.True(t, decimal.RequireFromString("-40.00").Equal(adjustments[0].Amount))
	assert.Equal(t, enums.LiabilityPartySeller, adjustments[1].Party)
	assert.True(t, decimal.RequireFromString("-40.00").Equal(adjustments[1].Amount))
}

func TestResolveLostWritesNoAdjustment(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCompleted, "80.00")
	f.seedSnapshot(t, order)
	dispute := f.open(t, order, "80.00")

	_, err := f.svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Status:     enums.DisputeStatusLost,
		ResolvedBy: uuid.New(),
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.FinanceAdjustment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResolveTwiceFails(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCompleted, "80.00")
	f.seedSnapshot(t, order)
	dispute := f.open(t, order, "80.00")

	_, err := f.svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Status:     enums.DisputeStatusLost,
		ResolvedBy: uuid.New(),
	})
	require.NoError(t, err)

	_, err = f.svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Status:     enums.DisputeStatusLost,
		ResolvedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDisputeNotOpen))
}

func TestResolveWithoutSnapshotSkipsLedger(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPaid, "80.00")
	dispute := f.open(t, order, "80.00")

	seller := enums.LiabilityPartySeller
	resolved, err := f.svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID:      dispute.ID,
		Status:         enums.DisputeStatusWon,
		LiabilityParty: &seller,
		ResolvedBy:     uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusWon, resolved.Status)

	var count int64
	require.NoError(t, f.db.Model(&models.FinanceAdjustment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResolveSharedRatioValidation(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCompleted, "80.00")
	dispute := f.open(t, order, "80.00")

	_, err := f.svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID: dispute.ID,
		Status:    enums.DisputeStatusShared,
		LiabilityRatio: &LiabilityRatio{
			Seller:   decimal.RequireFromString("0.7"),
			Platform: decimal.RequireFromString("0.5"),
		},
		ResolvedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestMarkUnderReview(t *testing.T) {
	f := newDisputeFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCompleted, "80.00")
	dispute := f.open(t, order, "80.00")

	reviewed, err := f.svc.MarkUnderReview(context.Background(), dispute.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusUnderReview, reviewed.Status)

	_, err = f.svc.MarkUnderReview(context.Background(), dispute.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDisputeNotOpen))
}
