package lots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the production lot lifecycle and implements the FEFO
// allocation used by the preparing transition.
type Service interface {
	CreateLot(ctx context.Context, input CreateLotInput) (*LotView, error)
	AdjustLot(ctx context.Context, input AdjustLotInput) (*LotView, error)
	RecallLot(ctx context.Context, input RecallLotInput) (*LotView, error)
	ListSellerLots(ctx context.Context, sellerID uuid.UUID) ([]LotView, error)
	ListOrdersUsingLot(ctx context.Context, lotID uuid.UUID) ([]AffectedOrder, error)
	AllocateTx(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds the lot service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lots repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) CreateLot(ctx context.Context, input CreateLotInput) (*LotView, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if input.FoodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "food id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	producedAt := input.ProducedAt
	if producedAt.IsZero() {
		producedAt = time.Now().UTC()
	}
	if producedAt.After(time.Now().Add(time.Minute)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produced_at may not be in the future")
	}

	lot, err := s.repo.Create(ctx, &models.ProductionLot{
		SellerID:          input.SellerID,
		FoodID:            input.FoodID,
		ProducedAt:        producedAt,
		QuantityProduced:  input.Quantity,
		QuantityAvailable: input.Quantity,
		Status:            enums.LotStatusActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create production lot")
	}
	view := toLotView(lot)
	return &view, nil
}

func (s *service) AdjustLot(ctx context.Context, input AdjustLotInput) (*LotView, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeReasonRequired, "adjustment reason required")
	}
	var view LotView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lot, err := s.loadLotForUpdate(ctx, repo, input.LotID, input.SellerID)
		if err != nil {
			return err
		}
		if lot.Status == enums.LotStatusRecalled {
			return pkgerrors.New(pkgerrors.CodeConflict, "recalled lots cannot be adjusted")
		}
		next := lot.QuantityAvailable + input.Delta
		if next < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment would make availability negative")
		}
		if err := repo.SetAvailable(ctx, lot.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust lot")
		}
		lot.QuantityAvailable = next
		view = toLotView(lot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// RecallLot flips the lot out of every future FEFO candidate set. Existing
// allocations stay untouched; repeat recalls are no-ops.
func (s *service) RecallLot(ctx context.Context, input RecallLotInput) (*LotView, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeReasonRequired, "recall reason required")
	}
	var view LotView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lot, err := s.loadLotForUpdate(ctx, repo, input.LotID, input.SellerID)
		if err != nil {
			return err
		}
		if lot.Status == enums.LotStatusRecalled {
			view = toLotView(lot)
			return nil
		}
		if err := repo.MarkRecalled(ctx, lot.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recall lot")
		}
		lot.Status = enums.LotStatusRecalled
		view = toLotView(lot)
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLotRecalled,
			AggregateType: enums.AggregateProductionLot,
			AggregateID:   lot.ID,
			Actor:         &outbox.ActorRef{UserID: input.SellerID, Role: string(enums.RoleSeller)},
			Data: payloads.LotRecalledEvent{
				LotID:      lot.ID,
				SellerID:   lot.SellerID,
				FoodID:     lot.FoodID,
				RecalledAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *service) ListSellerLots(ctx context.Context, sellerID uuid.UUID) ([]LotView, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lots")
	}
	views := make([]LotView, 0, len(rows))
	for i := range rows {
		views = append(views, toLotView(&rows[i]))
	}
	return views, nil
}

func (s *service) ListOrdersUsingLot(ctx context.Context, lotID uuid.UUID) ([]AffectedOrder, error) {
	if lotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	if _, err := s.repo.FindByID(ctx, lotID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
	}
	rows, err := s.repo.ListOrdersUsingLot(ctx, lotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list affected orders")
	}
	return rows, nil
}

// AllocateTx greedily consumes the oldest active lots per item inside the
// caller's transaction. Any shortage fails the whole allocation.
func (s *service) AllocateTx(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items to allocate")
	}
	repo := s.repo.WithTx(tx)

	var allocations []models.OrderItemLotAllocation
	type decrement struct {
		lotID    uuid.UUID
		quantity int
	}
	var decrements []decrement

	for _, item := range items {
		candidates, err := repo.ListActiveForUpdate(ctx, order.SellerID, item.FoodID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load candidate lots")
		}
		remaining := item.Quantity
		available := 0
		for _, lot := range candidates {
			available += lot.QuantityAvailable
		}
		if available < remaining {
			return pkgerrors.New(pkgerrors.CodeLotStockInsufficient, "insufficient lot stock for item").
				WithDetails(stockShortage{FoodID: item.FoodID, Requested: remaining, Available: available})
		}
		for _, lot := range candidates {
			if remaining == 0 {
				break
			}
			if lot.QuantityAvailable == 0 {
				continue
			}
			take := lot.QuantityAvailable
			if take > remaining {
				take = remaining
			}
			allocations = append(allocations, models.OrderItemLotAllocation{
				OrderItemID: item.ID,
				LotID:       lot.ID,
				Quantity:    take,
			})
			decrements = append(decrements, decrement{lotID: lot.ID, quantity: take})
			remaining -= take
		}
	}

	for _, d := range decrements {
		if err := repo.DecrementAvailable(ctx, d.lotID, d.quantity); err != nil {
			if errors.Is(err, ErrStockConflict) {
				return pkgerrors.New(pkgerrors.CodeLotStockInsufficient, "lot stock changed during allocation")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement lot stock")
		}
	}
	if err := repo.InsertAllocations(ctx, allocations); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record lot allocations")
	}
	return nil
}

func (s *service) loadLotForUpdate(ctx context.Context, repo Repository, lotID, sellerID uuid.UUID) (*models.ProductionLot, error) {
	if lotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	lot, err := repo.FindByIDForUpdate(ctx, lotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
	}
	if lot.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "lot does not belong to seller")
	}
	return lot, nil
}

func toLotView(lot *models.ProductionLot) LotView {
	return LotView{
		ID:                lot.ID,
		FoodID:            lot.FoodID,
		ProducedAt:        lot.ProducedAt,
		QuantityProduced:  lot.QuantityProduced,
		QuantityAvailable: lot.QuantityAvailable,
		Status:            lot.Status,
		CreatedAt:         lot.CreatedAt,
	}
}
