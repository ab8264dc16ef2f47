package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox/payloads"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns every lifecycle mutation. Each mutating call runs in a
// single transaction and serializes on the order row lock.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error)
	History(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.OrderEvent, error)
	ListBuyerOrders(ctx context.Context, actor Actor, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListSellerOrders(ctx context.Context, actor Actor, params pagination.Params, filters OrderFilters) (*OrderList, error)

	Approve(ctx context.Context, input TransitionInput) error
	Reject(ctx context.Context, input TransitionInput) error
	Cancel(ctx context.Context, input TransitionInput) error
	StartPreparing(ctx context.Context, input TransitionInput) error
	MarkReady(ctx context.Context, input TransitionInput) error
	StartDelivery(ctx context.Context, input TransitionInput) error
	MarkDelivered(ctx context.Context, input TransitionInput) error
	Complete(ctx context.Context, input TransitionInput) error

	BeginPaymentTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor Actor) (*models.Order, error)
	MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
}

// ServiceParams collects the dependencies required by NewService.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Compliance ComplianceGate
	Disclosure DisclosureGate
	Proof      DeliveryProofGate
	Allocator  LotAllocator
	Finance    FinanceFinalizer
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	compliance ComplianceGate
	disclosure DisclosureGate
	proof      DeliveryProofGate
	allocator  LotAllocator
	finance    FinanceFinalizer
}

// NewService builds the order lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Compliance == nil {
		return nil, fmt.Errorf("compliance gate required")
	}
	if params.Disclosure == nil {
		return nil, fmt.Errorf("disclosure gate required")
	}
	if params.Proof == nil {
		return nil, fmt.Errorf("delivery proof gate required")
	}
	if params.Allocator == nil {
		return nil, fmt.Errorf("lot allocator required")
	}
	if params.Finance == nil {
		return nil, fmt.Errorf("finance finalizer required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		compliance: params.Compliance,
		disclosure: params.Disclosure,
		proof:      params.Proof,
		allocator:  params.Allocator,
		finance:    params.Finance,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if input.Actor.Role != enums.RoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "only buyers create orders")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if input.SellerID == input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer and seller must differ")
	}
	if !input.DeliveryType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter code")
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.FoodID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item food id required")
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item unit price must be positive")
		}
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, models.OrderItem{
			FoodID:    item.FoodID,
			Name:      strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lineTotal,
		})
	}

	detail := &OrderDetail{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.Create(ctx, &models.Order{
			BuyerID:      input.Actor.UserID,
			SellerID:     input.SellerID,
			Status:       enums.OrderStatusPendingSellerApproval,
			DeliveryType: input.DeliveryType,
			Currency:     currency,
			TotalAmount:  total,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := repo.AppendEvent(ctx, &models.OrderEvent{
			OrderID:     order.ID,
			ActorUserID: input.Actor.UserID,
			ActorRole:   input.Actor.Role,
			ToStatus:    enums.OrderStatusPendingSellerApproval,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order event")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderCreatedEvent{
				OrderID:      order.ID,
				BuyerID:      order.BuyerID,
				SellerID:     order.SellerID,
				DeliveryType: order.DeliveryType,
				TotalAmount:  order.TotalAmount,
				Currency:     order.Currency,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		detail.Order = *order
		detail.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkReadScope(order, actor); err != nil {
		return nil, err
	}
	items, err := s.repo.FindItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	return &OrderDetail{Order: *order, Items: items}, nil
}

func (s *service) History(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.OrderEvent, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkReadScope(order, actor); err != nil {
		return nil, err
	}
	events, err := s.repo.ListEvents(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order events")
	}
	return events, nil
}

func (s *service) ListBuyerOrders(ctx context.Context, actor Actor, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if actor.Role != enums.RoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "buyer role required")
	}
	list, err := s.repo.ListByBuyer(ctx, actor.UserID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) ListSellerOrders(ctx context.Context, actor Actor, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if actor.Role != enums.RoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "seller role required")
	}
	list, err := s.repo.ListBySeller(ctx, actor.UserID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return list, nil
}

func (s *service) Approve(ctx context.Context, input TransitionInput) error {
	return s.sellerTransition(ctx, input, enums.OrderStatusSellerApproved, nil)
}

func (s *service) Reject(ctx context.Context, input TransitionInput) error {
	if reasonEmpty(input.Reason) {
		return pkgerrors.New(pkgerrors.CodeReasonRequired, "rejection reason required")
	}
	return s.sellerTransition(ctx, input, enums.OrderStatusRejected, nil)
}

func (s *service) Cancel(ctx context.Context, input TransitionInput) error {
	if err := validateTransitionInput(input); err != nil {
		return err
	}
	if input.Actor.Role != enums.RoleBuyer && reasonEmpty(input.Reason) {
		return pkgerrors.New(pkgerrors.CodeReasonRequired, "cancellation reason required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderForUpdate(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := checkCancelScope(order, input.Actor); err != nil {
			return err
		}
		if err := checkCancel(order.Status, input.Actor.Role); err != nil {
			return err
		}
		return s.applyTransitionTx(ctx, tx, repo, order, enums.OrderStatusCancelled, input.Actor, input.Reason)
	})
}

func (s *service) StartPreparing(ctx context.Context, input TransitionInput) error {
	if err := validateTransitionInput(input); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderForUpdate(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := checkSellerScope(order, input.Actor); err != nil {
			return err
		}
		if err := checkTransition(order.Status, enums.OrderStatusPreparing, input.Actor.Role); err != nil {
			return err
		}
		if err := s.compliance.EnsureSellerAllowed(ctx, tx, order.SellerID); err != nil {
			return err
		}
		items, err := repo.FindItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		if err := s.allocator.AllocateTx(ctx, tx, order, items); err != nil {
			return err
		}
		return s.applyTransitionTx(ctx, tx, repo, order, enums.OrderStatusPreparing, input.Actor, nil)
	})
}

func (s *service) MarkReady(ctx context.Context, input TransitionInput) error {
	return s.sellerTransition(ctx, input, enums.OrderStatusReady, nil)
}

func (s *service) StartDelivery(ctx context.Context, input TransitionInput) error {
	return s.sellerTransition(ctx, input, enums.OrderStatusInDelivery, func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
		if order.DeliveryType != enums.DeliveryTypeDelivery {
			return pkgerrors.New(pkgerrors.CodeOrderInvalidState, "pickup orders have no delivery leg").
				WithDetails(transitionDetails{From: order.Status, To: enums.OrderStatusInDelivery})
		}
		return nil
	})
}

func (s *service) MarkDelivered(ctx context.Context, input TransitionInput) error {
	return s.sellerTransition(ctx, input, enums.OrderStatusDelivered, func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
		if order.Status == enums.OrderStatusReady && order.DeliveryType == enums.DeliveryTypeDelivery {
			return pkgerrors.New(pkgerrors.CodeOrderInvalidState, "delivery orders must pass through in_delivery").
				WithDetails(transitionDetails{From: order.Status, To: enums.OrderStatusDelivered})
		}
		if order.Status == enums.OrderStatusInDelivery {
			return s.proof.EnsureVerified(ctx, tx, order.ID)
		}
		return nil
	})
}

func (s *service) Complete(ctx context.Context, input TransitionInput) error {
	if err := validateTransitionInput(input); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderForUpdate(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := checkBuyerScope(order, input.Actor); err != nil {
			return err
		}
		if err := checkTransition(order.Status, enums.OrderStatusCompleted, input.Actor.Role); err != nil {
			return err
		}
		if err := s.disclosure.EnsureAcknowledged(ctx, tx, order.ID, enums.DisclosurePhasePreOrder); err != nil {
			return err
		}
		if err := s.disclosure.EnsureAcknowledged(ctx, tx, order.ID, enums.DisclosurePhaseHandover); err != nil {
			return err
		}
		if order.DeliveryType == enums.DeliveryTypeDelivery {
			if err := s.proof.EnsureVerified(ctx, tx, order.ID); err != nil {
				return err
			}
		}
		snapshot, err := s.finance.FinalizeTx(ctx, tx, order, input.Actor)
		if err != nil {
			return err
		}
		if err := s.applyTransitionTx(ctx, tx, repo, order, enums.OrderStatusCompleted, input.Actor, nil); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderCompletedEvent{
				OrderID:         order.ID,
				BuyerID:         order.BuyerID,
				SellerID:        order.SellerID,
				GrossAmount:     snapshot.GrossAmount,
				SellerNetAmount: snapshot.SellerNetAmount,
				CompletedAt:     time.Now().UTC(),
			},
		})
	})
}

// BeginPaymentTx moves the order into awaiting_payment inside the caller's
// transaction. Re-entry while already awaiting payment is a no-op so buyers
// can retry an abandoned session.
func (s *service) BeginPaymentTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := s.repo.WithTx(tx)
	order, err := s.loadOrderForUpdate(ctx, repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkBuyerScope(order, actor); err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusAwaitingPayment {
		return order, nil
	}
	if err := checkTransition(order.Status, enums.OrderStatusAwaitingPayment, actor.Role); err != nil {
		return nil, err
	}
	if err := s.applyTransitionTx(ctx, tx, repo, order, enums.OrderStatusAwaitingPayment, actor, nil); err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPaidTx confirms payment inside the caller's transaction. Only the
// system actor reaches this path; duplicate confirmations are no-ops.
func (s *service) MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := s.repo.WithTx(tx)
	order, err := s.loadOrderForUpdate(ctx, repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusPaid {
		return order, nil
	}
	actor := SystemActor()
	if err := checkTransition(order.Status, enums.OrderStatusPaid, actor.Role); err != nil {
		return nil, err
	}
	if err := s.applyTransitionTx(ctx, tx, repo, order, enums.OrderStatusPaid, actor, nil); err != nil {
		return nil, err
	}
	return order, nil
}

type extraCheck func(ctx context.Context, tx *gorm.DB, order *models.Order) error

// sellerTransition is the shared path for every seller-driven status move.
// The compliance gate applies to all of them.
func (s *service) sellerTransition(ctx context.Context, input TransitionInput, target enums.OrderStatus, extra extraCheck) error {
	if err := validateTransitionInput(input); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderForUpdate(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := checkSellerScope(order, input.Actor); err != nil {
			return err
		}
		if err := checkTransition(order.Status, target, input.Actor.Role); err != nil {
			return err
		}
		if err := s.compliance.EnsureSellerAllowed(ctx, tx, order.SellerID); err != nil {
			return err
		}
		if extra != nil {
			if err := extra(ctx, tx, order); err != nil {
				return err
			}
		}
		return s.applyTransitionTx(ctx, tx, repo, order, target, input.Actor, input.Reason)
	})
}

func (s *service) applyTransitionTx(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, target enums.OrderStatus, actor Actor, reason *string) error {
	from := order.Status
	if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if err := repo.AppendEvent(ctx, &models.OrderEvent{
		OrderID:     order.ID,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		FromStatus:  from,
		ToStatus:    target,
		Reason:      reason,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order event")
	}
	order.Status = target

	payload := payloads.OrderStatusChangedEvent{
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		FromStatus: from,
		ToStatus:   target,
		ActorRole:  actor.Role,
	}
	if reason != nil {
		payload.Reason = *reason
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorRef(actor),
		Data:          payload,
	})
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadOrderForUpdate(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func validateTransitionInput(input TransitionInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Actor.Role.IsValid() || input.Actor.Role == enums.RoleSystem {
		return pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "invalid actor role")
	}
	return nil
}

func checkBuyerScope(order *models.Order, actor Actor) error {
	if actor.Role != enums.RoleBuyer {
		return pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "buyer role required")
	}
	if order.BuyerID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order does not belong to buyer")
	}
	return nil
}

func checkSellerScope(order *models.Order, actor Actor) error {
	if actor.Role != enums.RoleSeller {
		return pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "seller role required")
	}
	if order.SellerID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order does not belong to seller")
	}
	return nil
}

func checkCancelScope(order *models.Order, actor Actor) error {
	switch actor.Role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleBuyer:
		if order.BuyerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order does not belong to buyer")
		}
		return nil
	case enums.RoleSeller:
		if order.SellerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order does not belong to seller")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "role may not cancel orders")
	}
}

func checkReadScope(order *models.Order, actor Actor) error {
	switch actor.Role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleBuyer:
		if order.BuyerID == actor.UserID {
			return nil
		}
	case enums.RoleSeller:
		if order.SellerID == actor.UserID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order is not visible to this actor")
}

func reasonEmpty(reason *string) bool {
	return reason == nil || strings.TrimSpace(*reason) == ""
}

func actorRef(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   string(actor.Role),
	}
}
