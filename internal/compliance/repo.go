package compliance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a compliance repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Upsert(ctx context.Context, profile *models.SellerComplianceProfile) (*models.SellerComplianceProfile, error) {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seller_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"country_code", "status", "reviewed_by", "review_note", "updated_at",
			}),
		}).
		Create(profile).Error
	if err != nil {
		return nil, err
	}
	return r.FindBySeller(ctx, profile.SellerID)
}

func (r *repository) FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.SellerComplianceProfile, error) {
	var profile models.SellerComplianceProfile
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.SellerComplianceProfile, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.SellerComplianceProfile
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
