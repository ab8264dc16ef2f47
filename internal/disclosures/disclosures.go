package disclosures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AcknowledgeInput records the buyer's allergen acknowledgement for one
// phase of an order.
type AcknowledgeInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Phase   enums.DisclosurePhase
}

// Service records and checks allergen disclosure acknowledgements. The
// completed transition requires both phases to be on file.
type Service interface {
	Acknowledge(ctx context.Context, input AcknowledgeInput) (*models.AllergenDisclosureRecord, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.AllergenDisclosureRecord, error)
	EnsureAcknowledged(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, phase enums.DisclosurePhase) error
}

type service struct {
	db *gorm.DB
	tx txRunner
}

// NewService builds the disclosure service.
func NewService(db *gorm.DB, tx txRunner) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{db: db, tx: tx}, nil
}

// Acknowledge is idempotent per (order, phase): the first acknowledgement
// wins and repeats return the stored record.
func (s *service) Acknowledge(ctx context.Context, input AcknowledgeInput) (*models.AllergenDisclosureRecord, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if !input.Phase.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid disclosure phase")
	}

	var record models.AllergenDisclosureRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.WithContext(ctx).Select("id", "buyer_id", "status").First(&order, "id = ?", input.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order does not belong to buyer")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeOrderTerminal, "order is in a terminal state")
		}

		err := tx.WithContext(ctx).
			Where("order_id = ?", input.OrderID).
			Where("phase = ?", input.Phase).
			First(&record).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load disclosure record")
		}

		record = models.AllergenDisclosureRecord{
			ID:             uuid.New(),
			OrderID:        input.OrderID,
			Phase:          input.Phase,
			BuyerID:        input.BuyerID,
			AcknowledgedAt: time.Now().UTC(),
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store disclosure record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.AllergenDisclosureRecord, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	var rows []models.AllergenDisclosureRecord
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("acknowledged_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disclosure records")
	}
	return rows, nil
}

func (s *service) EnsureAcknowledged(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, phase enums.DisclosurePhase) error {
	conn := s.db
	if tx != nil {
		conn = tx
	}
	var count int64
	err := conn.WithContext(ctx).
		Model(&models.AllergenDisclosureRecord{}).
		Where("order_id = ?", orderID).
		Where("phase = ?", phase).
		Count(&count).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check disclosure record")
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeDisclosureRequired, "allergen acknowledgement missing for phase "+string(phase))
	}
	return nil
}
