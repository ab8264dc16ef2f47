package disputes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// Repository defines persistence operations for dispute cases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dispute *models.PaymentDisputeCase) (*models.PaymentDisputeCase, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentDisputeCase, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentDisputeCase, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentDisputeCase, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.PaymentDisputeCase, error)
	ListByStatus(ctx context.Context, status enums.DisputeStatus, limit int) ([]models.PaymentDisputeCase, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a disputes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, dispute *models.PaymentDisputeCase) (*models.PaymentDisputeCase, error) {
	if dispute.ID == uuid.Nil {
		dispute.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(dispute).Error; err != nil {
		return nil, err
	}
	return dispute, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentDisputeCase, error) {
	var dispute models.PaymentDisputeCase
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&dispute).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentDisputeCase, error) {
	var dispute models.PaymentDisputeCase
	err := dbpkg.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&dispute).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentDisputeCase, error) {
	var rows []models.PaymentDisputeCase
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.PaymentDisputeCase, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.PaymentDisputeCase
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = payment_dispute_cases.order_id").
		Where("orders.buyer_id = ?", buyerID).
		Order("payment_dispute_cases.created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.DisputeStatus, limit int) ([]models.PaymentDisputeCase, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.PaymentDisputeCase
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentDisputeCase{}).
		Where("id = ?", id).
		Updates(updates).Error
}
