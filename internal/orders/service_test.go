package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

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

type fakeCompliance struct {
	err   error
	calls int
}

func (g *fakeCompliance) EnsureSellerAllowed(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) error {
	g.calls++
	return g.err
}

type fakeDisclosure struct {
	err    error
	phases []enums.DisclosurePhase
}

func (g *fakeDisclosure) EnsureAcknowledged(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, phase enums.DisclosurePhase) error {
	g.phases = append(g.phases, phase)
	return g.err
}

type fakeProof struct {
	err   error
	calls int
}

func (g *fakeProof) EnsureVerified(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	g.calls++
	return g.err
}

type fakeAllocator struct {
	err   error
	calls int
	items []models.OrderItem
}

func (a *fakeAllocator) AllocateTx(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) error {
	a.calls++
	a.items = items
	return a.err
}

type fakeFinance struct {
	err   error
	calls int
}

func (f *fakeFinance) FinalizeTx(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) (*models.OrderFinance, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.OrderFinance{
		ID:              uuid.New(),
		OrderID:         order.ID,
		SellerID:        order.SellerID,
		GrossAmount:     order.TotalAmount,
		SellerNetAmount: order.TotalAmount.Mul(decimal.NewFromFloat(0.85)),
	}, nil
}

type serviceFixture struct {
	db         *gorm.DB
	svc        Service
	compliance *fakeCompliance
	disclosure *fakeDisclosure
	proof      *fakeProof
	allocator  *fakeAllocator
	finance    *fakeFinance
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupOrdersTestDB(t)
	f := &serviceFixture{
		db:         db,
		compliance: &fakeCompliance{},
		disclosure: &fakeDisclosure{},
		proof:      &fakeProof{},
		allocator:  &fakeAllocator{},
		finance:    &fakeFinance{},
	}
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		Tx:         gormTxRunner{db: db},
		Outbox:     outbox.NewService(outbox.NewRepository(db), nil),
		Compliance: f.compliance,
		Disclosure: f.disclosure,
		Proof:      f.proof,
		Allocator:  f.allocator,
		Finance:    f.finance,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *serviceFixture) seed(t *testing.T, status enums.OrderStatus, deliveryType enums.DeliveryType) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:           uuid.New(),
		BuyerID:      uuid.New(),
		SellerID:     uuid.New(),
		Status:       status,
		DeliveryType: deliveryType,
		Currency:     "EUR",
		TotalAmount:  decimal.NewFromFloat(30.00),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func (f *serviceFixture) reload(t *testing.T, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", id).Error)
	return order
}

func (f *serviceFixture) outboxEvents(t *testing.T, aggregateID uuid.UUID) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.db.Where("aggregate_id = ?", aggregateID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func sellerInput(order *models.Order) TransitionInput {
	return TransitionInput{
		OrderID: order.ID,
		Actor:   Actor{UserID: order.SellerID, Role: enums.RoleSeller},
	}
}

func buyerInput(order *models.Order) TransitionInput {
	return TransitionInput{
		OrderID: order.ID,
		Actor:   Actor{UserID: order.BuyerID, Role: enums.RoleBuyer},
	}
}

func TestServiceCreatePersistsOrderAndEmitsEvent(t *testing.T) {
	f := newServiceFixture(t)
	buyerID := uuid.New()

	detail, err := f.svc.Create(context.Background(), CreateOrderInput{
		Actor:        Actor{UserID: buyerID, Role: enums.RoleBuyer},
		SellerID:     uuid.New(),
		DeliveryType: enums.DeliveryTypePickup,
		Items: []CreateOrderItemInput{
			{FoodID: uuid.New(), Name: "Stuffed peppers", Quantity: 2, UnitPrice: decimal.NewFromFloat(7.50)},
			{FoodID: uuid.New(), Name: "Baklava", Quantity: 1, UnitPrice: decimal.NewFromFloat(4.00)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingSellerApproval, detail.Order.Status)
	assert.Equal(t, "EUR", detail.Order.Currency)
	assert.True(t, decimal.NewFromFloat(19.00).Equal(detail.Order.TotalAmount))
	require.Len(t, detail.Items, 2)
	assert.True(t, decimal.NewFromFloat(15.00).Equal(detail.Items[0].LineTotal))

	events := f.outboxEvents(t, detail.Order.ID)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCreated, events[0].EventType)
}

func TestServiceCreateValidation(t *testing.T) {
	f := newServiceFixture(t)
	buyer := Actor{UserID: uuid.New(), Role: enums.RoleBuyer}

	cases := []struct {
		name  string
		input CreateOrderInput
		code  pkgerrors.Code
	}{
		{
			name:  "seller role rejected",
			input: CreateOrderInput{Actor: Actor{UserID: uuid.New(), Role: enums.RoleSeller}},
			code:  pkgerrors.CodeRoleNotAllowed,
		},
		{
			name:  "missing items",
			input: CreateOrderInput{Actor: buyer, SellerID: uuid.New(), DeliveryType: enums.DeliveryTypePickup},
			code:  pkgerrors.CodeValidation,
		},
		{
			name: "self purchase",
			input: CreateOrderInput{
				Actor: buyer, SellerID: buyer.UserID, DeliveryType: enums.DeliveryTypePickup,
				Items: []CreateOrderItemInput{{FoodID: uuid.New(), Name: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "non-positive quantity",
			input: CreateOrderInput{
				Actor: buyer, SellerID: uuid.New(), DeliveryType: enums.DeliveryTypePickup,
				Items: []CreateOrderItemInput{{FoodID: uuid.New(), Name: "x", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
			},
			code: pkgerrors.CodeValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tc.code))
		})
	}
}

func TestServiceApproveHappyPath(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusPendingSellerApproval, enums.DeliveryTypePickup)

	require.NoError(t, f.svc.Approve(context.Background(), sellerInput(order)))

	stored := f.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusSellerApproved, stored.Status)
	assert.Equal(t, 1, f.compliance.calls)

	events := f.outboxEvents(t, order.ID)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderStatusChanged, events[0].EventType)

	var audit []models.OrderEvent
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&audit).Error)
	require.Len(t, audit, 1)
	assert.Equal(t, enums.OrderStatusPendingSellerApproval, audit[0].FromStatus)
	assert.Equal(t, enums.OrderStatusSellerApproved, audit[0].ToStatus)
}

func TestServiceApproveRejectsForeignSeller(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusPendingSellerApproval, enums.DeliveryTypePickup)

	err := f.svc.Approve(context.Background(), TransitionInput{
		OrderID: order.ID,
		Actor:   Actor{UserID: uuid.New(), Role: enums.RoleSeller},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbiddenOrderScope))
	assert.Equal(t, enums.OrderStatusPendingSellerApproval, f.reload(t, order.ID).Status)
}

func TestServiceApproveBlockedBySuspendedSellerRollsBack(t *testing.T) {
	f := newServiceFixture(t)
	f.compliance.err = pkgerrors.New(pkgerrors.CodeComplianceBlocked, "seller suspended")
	order := f.seed(t, enums.OrderStatusPendingSellerApproval, enums.DeliveryTypePickup)

	err := f.svc.Approve(context.Background(), sellerInput(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeComplianceBlocked))
	assert.Equal(t, enums.OrderStatusPendingSellerApproval, f.reload(t, order.ID).Status)
	assert.Empty(t, f.outboxEvents(t, order.ID))
}

func TestServiceRejectRequiresReason(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusPendingSellerApproval, enums.DeliveryTypePickup)

	err := f.svc.Reject(context.Background(), sellerInput(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeReasonRequired))

	reason := "sold out today"
	input := sellerInput(order)
	input.Reason = &reason
	require.NoError(t, f.svc.Reject(context.Background(), input))
	assert.Equal(t, enums.OrderStatusRejected, f.reload(t, order.ID).Status)
}

func TestServiceCancelWindows(t *testing.T) {
	f := newServiceFixture(t)

	paid := f.seed(t, enums.OrderStatusPaid, enums.DeliveryTypePickup)
	require.NoError(t, f.svc.Cancel(context.Background(), buyerInput(paid)))
	assert.Equal(t, enums.OrderStatusCancelled, f.reload(t, paid.ID).Status)

	preparing := f.seed(t, enums.OrderStatusPreparing, enums.DeliveryTypePickup)
	err := f.svc.Cancel(context.Background(), buyerInput(preparing))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderCancelPolicy))

	reason := "kitchen incident"
	adminInput := TransitionInput{
		OrderID: preparing.ID,
		Actor:   Actor{UserID: uuid.New(), Role: enums.RoleAdmin},
		Reason:  &reason,
	}
	require.NoError(t, f.svc.Cancel(context.Background(), adminInput))
	assert.Equal(t, enums.OrderStatusCancelled, f.reload(t, preparing.ID).Status)
}

func TestServiceCancelSellerRequiresReason(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusSellerApproved, enums.DeliveryTypePickup)

	err := f.svc.Cancel(context.Background(), sellerInput(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeReasonRequired))
}

func TestServiceStartPreparingAllocatesStock(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusPaid, enums.DeliveryTypePickup)
	item := models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		FoodID:    uuid.New(),
		Name:      "Moussaka",
		Quantity:  3,
		UnitPrice: decimal.NewFromFloat(10.00),
		LineTotal: decimal.NewFromFloat(30.00),
	}
	require.NoError(t, f.db.Create(&item).Error)

	require.NoError(t, f.svc.StartPreparing(context.Background(), sellerInput(order)))

	assert.Equal(t, enums.OrderStatusPreparing, f.reload(t, order.ID).Status)
	assert.Equal(t, 1, f.allocator.calls)
	require.Len(t, f.allocator.items, 1)
	assert.Equal(t, item.ID, f.allocator.items[0].ID)
}

func TestServiceStartPreparingInsufficientStockRollsBack(t *testing.T) {
	f := newServiceFixture(t)
	f.allocator.err = pkgerrors.New(pkgerrors.CodeLotStockInsufficient, "not enough stock")
	order := f.seed(t, enums.OrderStatusPaid, enums.DeliveryTypePickup)

	err := f.svc.StartPreparing(context.Background(), sellerInput(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeLotStockInsufficient))
	assert.Equal(t, enums.OrderStatusPaid, f.reload(t, order.ID).Status)
	assert.Empty(t, f.outboxEvents(t, order.ID))
}

func TestServiceStartDeliveryRequiresDeliveryOrder(t *testing.T) {
	f := newServiceFixture(t)
	pickup := f.seed(t, enums.OrderStatusReady, enums.DeliveryTypePickup)

	err := f.svc.StartDelivery(context.Background(), sellerInput(pickup))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderInvalidState))

	delivery := f.seed(t, enums.OrderStatusReady, enums.DeliveryTypeDelivery)
	require.NoError(t, f.svc.StartDelivery(context.Background(), sellerInput(delivery)))
	assert.Equal(t, enums.OrderStatusInDelivery, f.reload(t, delivery.ID).Status)
}

func TestServiceMarkDeliveredPickupFromReady(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusReady, enums.DeliveryTypePickup)

	require.NoError(t, f.svc.MarkDelivered(context.Background(), sellerInput(order)))
	assert.Equal(t, enums.OrderStatusDelivered, f.reload(t, order.ID).Status)
	assert.Zero(t, f.proof.calls)
}

func TestServiceMarkDeliveredDeliveryNeedsProof(t *testing.T) {
	f := newServiceFixture(t)
	f.proof.err = pkgerrors.New(pkgerrors.CodeDeliveryPinRequired, "handover pin not verified")
	order := f.seed(t, enums.OrderStatusInDelivery, enums.DeliveryTypeDelivery)

	err := f.svc.MarkDelivered(context.Background(), sellerInput(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDeliveryPinRequired))
	assert.Equal(t, enums.OrderStatusInDelivery, f.reload(t, order.ID).Status)

	f.proof.err = nil
	require.NoError(t, f.svc.MarkDelivered(context.Background(), sellerInput(order)))
	assert.Equal(t, enums.OrderStatusDelivered, f.reload(t, order.ID).Status)
}

func TestServiceMarkDeliveredDeliveryCannotSkipInDelivery(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusReady, enums.DeliveryTypeDelivery)

	err := f.svc.MarkDelivered(context.Background(), sellerInput(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderInvalidState))
}

func TestServiceCompleteFinalizesFinance(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusDelivered, enums.DeliveryTypePickup)

	require.NoError(t, f.svc.Complete(context.Background(), buyerInput(order)))

	assert.Equal(t, enums.OrderStatusCompleted, f.reload(t, order.ID).Status)
	assert.Equal(t, 1, f.finance.calls)
	require.Equal(t, []enums.DisclosurePhase{enums.DisclosurePhasePreOrder, enums.DisclosurePhaseHandover}, f.disclosure.phases)

	events := f.outboxEvents(t, order.ID)
	types := make([]enums.OutboxEventType, 0, len(events))
	for _, event := range events {
		types = append(types, event.EventType)
	}
	assert.Contains(t, types, enums.EventOrderStatusChanged)
	assert.Contains(t, types, enums.EventOrderCompleted)
}

func TestServiceCompleteBlockedByMissingDisclosure(t *testing.T) {
	f := newServiceFixture(t)
	f.disclosure.err = pkgerrors.New(pkgerrors.CodeDisclosureRequired, "handover acknowledgement missing")
	order := f.seed(t, enums.OrderStatusDelivered, enums.DeliveryTypePickup)

	err := f.svc.Complete(context.Background(), buyerInput(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDisclosureRequired))
	assert.Equal(t, enums.OrderStatusDelivered, f.reload(t, order.ID).Status)
	assert.Zero(t, f.finance.calls)
}

func TestServiceCompleteDeliveryChecksProof(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusDelivered, enums.DeliveryTypeDelivery)

	require.NoError(t, f.svc.Complete(context.Background(), buyerInput(order)))
	assert.Equal(t, 1, f.proof.calls)
}

func TestServiceBeginPaymentTx(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusSellerApproved, enums.DeliveryTypePickup)
	buyer := Actor{UserID: order.BuyerID, Role: enums.RoleBuyer}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		updated, err := f.svc.BeginPaymentTx(context.Background(), tx, order.ID, buyer)
		if err != nil {
			return err
		}
		assert.Equal(t, enums.OrderStatusAwaitingPayment, updated.Status)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAwaitingPayment, f.reload(t, order.ID).Status)

	// retrying an abandoned session is a no-op
	err = f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.BeginPaymentTx(context.Background(), tx, order.ID, buyer)
		return err
	})
	require.NoError(t, err)
}

func TestServiceMarkPaidTxIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusAwaitingPayment, enums.DeliveryTypePickup)

	for i := 0; i < 2; i++ {
		err := f.db.Transaction(func(tx *gorm.DB) error {
			updated, err := f.svc.MarkPaidTx(context.Background(), tx, order.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, enums.OrderStatusPaid, updated.Status)
			return nil
		})
		require.NoError(t, err)
	}

	events := f.outboxEvents(t, order.ID)
	require.Len(t, events, 1)

	var audit []models.OrderEvent
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&audit).Error)
	require.Len(t, audit, 1)
	assert.Equal(t, enums.RoleSystem, audit[0].ActorRole)
}

func TestServiceGetEnforcesScope(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusPaid, enums.DeliveryTypePickup)

	_, err := f.svc.Get(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleBuyer}, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbiddenOrderScope))

	detail, err := f.svc.Get(context.Background(), Actor{UserID: order.BuyerID, Role: enums.RoleBuyer}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, detail.Order.ID)

	_, err = f.svc.Get(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, order.ID)
	require.NoError(t, err)
}

func TestServiceGetNotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Get(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderNotFound))
}

func TestServiceHistoryReturnsAudit(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seed(t, enums.OrderStatusPendingSellerApproval, enums.DeliveryTypePickup)

	require.NoError(t, f.svc.Approve(context.Background(), sellerInput(order)))

	events, err := f.svc.History(context.Background(), Actor{UserID: order.SellerID, Role: enums.RoleSeller}, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.OrderStatusSellerApproved, events[0].ToStatus)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
