package disputes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/finance"
	dbpkg "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
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

type financeLedger interface {
	AddAdjustmentTx(ctx context.Context, tx *gorm.DB, input finance.AdjustmentInput) (*models.FinanceAdjustment, error)
}

// Service manages refund/chargeback cases. Resolution writes the liability
// split into the finance ledger exactly once.
type Service interface {
	Open(ctx context.Context, input OpenDisputeInput) (*models.PaymentDisputeCase, error)
	MarkUnderReview(ctx context.Context, disputeID, adminID uuid.UUID) (*models.PaymentDisputeCase, error)
	Resolve(ctx context.Context, input ResolveDisputeInput) (*models.PaymentDisputeCase, error)
	Get(ctx context.Context, disputeID uuid.UUID) (*models.PaymentDisputeCase, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentDisputeCase, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.PaymentDisputeCase, error)
	ListOpen(ctx context.Context, limit int) ([]models.PaymentDisputeCase, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	ledger financeLedger
}

// NewService builds the dispute service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, ledger financeLedger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disputes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("finance ledger required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, ledger: ledger}, nil
}

// disputableStatuses are the order states money has already moved in.
var disputableStatuses = map[enums.OrderStatus]bool{
	enums.OrderStatusPaid:       true,
	enums.OrderStatusPreparing:  true,
	enums.OrderStatusReady:      true,
	enums.OrderStatusInDelivery: true,
	enums.OrderStatusDelivered:  true,
	enums.OrderStatusCompleted:  true,
}

func (s *service) Open(ctx context.Context, input OpenDisputeInput) (*models.PaymentDisputeCase, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if input.DisputedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "disputed amount must be positive")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeReasonRequired, "dispute reason required")
	}

	var dispute *models.PaymentDisputeCase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var order models.Order
		if err := tx.WithContext(ctx).Select("id", "buyer_id", "status", "total_amount").First(&order, "id = ?", input.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order does not belong to buyer")
		}
		if !disputableStatuses[order.Status] {
			return pkgerrors.New(pkgerrors.CodeOrderInvalidState, "order has no captured payment to dispute")
		}
		if input.DisputedAmount.GreaterThan(order.TotalAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "disputed amount exceeds order total")
		}

		existing, err := repo.ListByOrder(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing disputes")
		}
		for _, row := range existing {
			if row.Status == enums.DisputeStatusOpened || row.Status == enums.DisputeStatusUnderReview {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has an open dispute")
			}
		}

		providerCaseID := strings.TrimSpace(input.ProviderCaseID)
		if providerCaseID == "" {
			providerCaseID = "internal-" + uuid.NewString()
		}
		note := strings.TrimSpace(input.Reason)
		dispute, err = repo.Create(ctx, &models.PaymentDisputeCase{
			OrderID:        input.OrderID,
			ProviderCaseID: providerCaseID,
			Status:         enums.DisputeStatusOpened,
			DisputedAmount: input.DisputedAmount,
			ResolutionNote: &note,
		})
		if err != nil {
			// ux_dispute_cases_live catches the race where two opens pass
			// the pre-check concurrently.
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has an open dispute")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispute")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeOpened,
			AggregateType: enums.AggregateDispute,
			AggregateID:   dispute.ID,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: string(enums.RoleBuyer)},
			Data: payloads.DisputeOpenedEvent{
				DisputeID:      dispute.ID,
				OrderID:        dispute.OrderID,
				ProviderCaseID: dispute.ProviderCaseID,
				DisputedAmount: dispute.DisputedAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

func (s *service) MarkUnderReview(ctx context.Context, disputeID, adminID uuid.UUID) (*models.PaymentDisputeCase, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	var dispute *models.PaymentDisputeCase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadForUpdate(ctx, repo, disputeID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.DisputeStatusOpened {
			return pkgerrors.New(pkgerrors.CodeDisputeNotOpen, "dispute is not in the opened state")
		}
		if err := repo.Update(ctx, loaded.ID, map[string]any{"status": enums.DisputeStatusUnderReview}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}
		loaded.Status = enums.DisputeStatusUnderReview
		dispute = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// Resolve flips an open dispute to its terminal verdict and writes one
// finance adjustment per liable party, apportioned by the ratio. The
// order's settlement snapshot itself is never touched.
func (s *service) Resolve(ctx context.Context, input ResolveDisputeInput) (*models.PaymentDisputeCase, error) {
	if input.ResolvedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "resolver identity missing")
	}
	ratio, err := resolveRatio(input)
	if err != nil {
		return nil, err
	}

	var dispute *models.PaymentDisputeCase
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadForUpdate(ctx, repo, input.DisputeID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.DisputeStatusOpened && loaded.Status != enums.DisputeStatusUnderReview {
			return pkgerrors.New(pkgerrors.CodeDisputeNotOpen, "dispute already resolved")
		}

		sellerShare := loaded.DisputedAmount.Mul(ratio.Seller).Round(2)
		platformShare := loaded.DisputedAmount.Mul(ratio.Platform).Round(2)
		if sellerShare.IsPositive() || platformShare.IsPositive() {
			var snapshot models.OrderFinance
			err := tx.WithContext(ctx).First(&snapshot, "order_id = ?", loaded.OrderID).Error
			switch {
			case err == nil:
				shares := []struct {
					party  enums.LiabilityParty
					amount decimal.Decimal
				}{
					{enums.LiabilityPartySeller, sellerShare},
					{enums.LiabilityPartyPlatform, platformShare},
				}
				for _, share := range shares {
					if !share.amount.IsPositive() {
						continue
					}
					_, err = s.ledger.AddAdjustmentTx(ctx, tx, finance.AdjustmentInput{
						OrderFinanceID: snapshot.ID,
						Party:          share.party,
						Amount:         share.amount.Neg(),
						Reason:         "dispute " + loaded.ProviderCaseID + " resolved against " + share.party.String(),
						SourceType:     "dispute",
						SourceID:       &loaded.ID,
						CreatedBy:      input.ResolvedBy,
					})
					if err != nil {
						return err
					}
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// order never completed, no settlement exists; the refund
				// happens at the provider before payout
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load finance snapshot")
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":      input.Status,
			"resolved_by": input.ResolvedBy,
			"resolved_at": now,
		}
		if input.LiabilityParty != nil {
			updates["liability_party"] = *input.LiabilityParty
		}
		if note := strings.TrimSpace(input.ResolutionNote); note != "" {
			updates["resolution_note"] = note
		}
		if err := repo.Update(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}
		loaded.Status = input.Status
		loaded.ResolvedBy = &input.ResolvedBy
		loaded.ResolvedAt = &now
		dispute = loaded

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeResolved,
			AggregateType: enums.AggregateDispute,
			AggregateID:   loaded.ID,
			Actor:         &outbox.ActorRef{UserID: input.ResolvedBy, Role: string(enums.RoleAdmin)},
			Data: payloads.DisputeResolvedEvent{
				DisputeID:      loaded.ID,
				OrderID:        loaded.OrderID,
				Status:         input.Status,
				LiabilityParty: input.LiabilityParty,
				ResolvedAt:     now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

func (s *service) Get(ctx context.Context, disputeID uuid.UUID) (*models.PaymentDisputeCase, error) {
	if disputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	dispute, err := s.repo.FindByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentDisputeCase, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}
	return rows, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.PaymentDisputeCase, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	rows, err := s.repo.ListByBuyer(ctx, buyerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer disputes")
	}
	return rows, nil
}

func (s *service) ListOpen(ctx context.Context, limit int) ([]models.PaymentDisputeCase, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.DisputeStatusOpened, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open disputes")
	}
	return rows, nil
}

func (s *service) loadForUpdate(ctx context.Context, repo Repository, disputeID uuid.UUID) (*models.PaymentDisputeCase, error) {
	if disputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	dispute, err := repo.FindByIDForUpdate(ctx, disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

// resolveRatio normalizes the verdict into a liability split.
func resolveRatio(input ResolveDisputeInput) (LiabilityRatio, error) {
	one := decimal.NewFromInt(1)
	switch input.Status {
	case enums.DisputeStatusLost:
		return LiabilityRatio{Seller: decimal.Zero, Platform: decimal.Zero}, nil
	case enums.DisputeStatusWon:
		if input.LiabilityParty == nil {
			return LiabilityRatio{}, pkgerrors.New(pkgerrors.CodeValidation, "liability party required for won disputes")
		}
		if *input.LiabilityParty == enums.LiabilityPartyPlatform {
			return LiabilityRatio{Seller: decimal.Zero, Platform: one}, nil
		}
		return LiabilityRatio{Seller: one, Platform: decimal.Zero}, nil
	case enums.DisputeStatusShared:
		if input.LiabilityRatio == nil {
			return LiabilityRatio{}, pkgerrors.New(pkgerrors.CodeValidation, "liability ratio required for shared disputes")
		}
		ratio := *input.LiabilityRatio
		if ratio.Seller.IsNegative() || ratio.Platform.IsNegative() {
			return LiabilityRatio{}, pkgerrors.New(pkgerrors.CodeValidation, "liability shares must be non-negative")
		}
		if !ratio.Seller.Add(ratio.Platform).Equal(one) {
			return LiabilityRatio{}, pkgerrors.New(pkgerrors.CodeValidation, "liability shares must sum to 1")
		}
		return ratio, nil
	default:
		return LiabilityRatio{}, pkgerrors.New(pkgerrors.CodeValidation, "resolution status must be terminal")
	}
}
