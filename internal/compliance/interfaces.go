package compliance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
)

// Repository defines persistence operations for seller compliance profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, profile *models.SellerComplianceProfile) (*models.SellerComplianceProfile, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.SellerComplianceProfile, error)
	List(ctx context.Context, limit int) ([]models.SellerComplianceProfile, error)
}
