package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
)

// Repository defines persistence operations for finance snapshots,
// adjustments, and commission settings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertSnapshot(ctx context.Context, snapshot *models.OrderFinance) error
	FindSnapshotByOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderFinance, error)
	FindSnapshotByID(ctx context.Context, id uuid.UUID) (*models.OrderFinance, error)
	ActiveCommission(ctx context.Context, at time.Time) (*models.CommissionSetting, error)
	InsertCommission(ctx context.Context, setting *models.CommissionSetting) error
	ListCommissions(ctx context.Context, limit int) ([]models.CommissionSetting, error)
	InsertAdjustment(ctx context.Context, adjustment *models.FinanceAdjustment) error
	ListAdjustments(ctx context.Context, orderFinanceID uuid.UUID) ([]models.FinanceAdjustment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a finance repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) InsertSnapshot(ctx context.Context, snapshot *models.OrderFinance) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *repository) FindSnapshotByOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderFinance, error) {
	var snapshot models.OrderFinance
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *repository) FindSnapshotByID(ctx context.Context, id uuid.UUID) (*models.OrderFinance, error) {
	var snapshot models.OrderFinance
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ActiveCommission returns the latest setting effective at the given time.
func (r *repository) ActiveCommission(ctx context.Context, at time.Time) (*models.CommissionSetting, error) {
	var setting models.CommissionSetting
	err := r.db.WithContext(ctx).
		Where("effective_from <= ?", at).
		Order("effective_from DESC").
		Order("created_at DESC").
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) InsertCommission(ctx context.Context, setting *models.CommissionSetting) error {
	if setting.ID == uuid.Nil {
		setting.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(setting).Error
}

func (r *repository) ListCommissions(ctx context.Context, limit int) ([]models.CommissionSetting, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.CommissionSetting
	err := r.db.WithContext(ctx).
		Order("effective_from DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) InsertAdjustment(ctx context.Context, adjustment *models.FinanceAdjustment) error {
	if adjustment.ID == uuid.Nil {
		adjustment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) ListAdjustments(ctx context.Context, orderFinanceID uuid.UUID) ([]models.FinanceAdjustment, error) {
	var rows []models.FinanceAdjustment
	err := r.db.WithContext(ctx).
		Where("order_finance_id = ?", orderFinanceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
