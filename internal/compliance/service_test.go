package compliance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
)

func setupComplianceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS seller_compliance_profiles (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL UNIQUE,
  country_code TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  reviewed_by TEXT,
  review_note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM seller_compliance_profiles")
	})
	return db
}

func newComplianceService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedProfile(t *testing.T, db *gorm.DB, sellerID uuid.UUID, country string, status enums.ComplianceStatus) {
	t.Helper()
	require.NoError(t, db.Create(&models.SellerComplianceProfile{
		ID:          uuid.New(),
		SellerID:    sellerID,
		CountryCode: country,
		Status:      status,
	}).Error)
}

func TestServiceSetProfileUpserts(t *testing.T) {
	db := setupComplianceTestDB(t)
	svc := newComplianceService(t, db)
	sellerID := uuid.New()
	adminID := uuid.New()

	stored, err := svc.SetProfile(context.Background(), SetProfileInput{
		SellerID:    sellerID,
		CountryCode: "nl",
		Status:      enums.ComplianceStatusPending,
		ReviewedBy:  adminID,
	})
	require.NoError(t, err)
	assert.Equal(t, "NL", stored.CountryCode)
	assert.Equal(t, enums.ComplianceStatusPending, stored.Status)

	stored, err = svc.SetProfile(context.Background(), SetProfileInput{
		SellerID:    sellerID,
		CountryCode: "NL",
		Status:      enums.ComplianceStatusApproved,
		ReviewedBy:  adminID,
		ReviewNote:  "documents verified",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ComplianceStatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewNote)

	var count int64
	require.NoError(t, db.Model(&models.SellerComplianceProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestServiceSetProfileValidation(t *testing.T) {
	db := setupComplianceTestDB(t)
	svc := newComplianceService(t, db)

	_, err := svc.SetProfile(context.Background(), SetProfileInput{
		SellerID:    uuid.New(),
		CountryCode: "NLD",
		Status:      enums.ComplianceStatusApproved,
		ReviewedBy:  uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestEnsureSellerAllowed(t *testing.T) {
	db := setupComplianceTestDB(t)
	svc := newComplianceService(t, db)
	ctx := context.Background()

	missing := uuid.New()
	err := svc.EnsureSellerAllowed(ctx, db, missing)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeComplianceRequired))

	approved := uuid.New()
	seedProfile(t, db, approved, "NL", enums.ComplianceStatusApproved)
	assert.NoError(t, svc.EnsureSellerAllowed(ctx, db, approved))

	suspended := uuid.New()
	seedProfile(t, db, suspended, "NL", enums.ComplianceStatusSuspended)
	err = svc.EnsureSellerAllowed(ctx, db, suspended)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeComplianceBlocked))

	rejected := uuid.New()
	seedProfile(t, db, rejected, "NL", enums.ComplianceStatusRejected)
	err = svc.EnsureSellerAllowed(ctx, db, rejected)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeComplianceBlocked))
}

func TestEnsureSellerAllowedPendingDependsOnJurisdiction(t *testing.T) {
	db := setupComplianceTestDB(t)
	svc := newComplianceService(t, db)
	ctx := context.Background()

	pendingNL := uuid.New()
	seedProfile(t, db, pendingNL, "NL", enums.ComplianceStatusPending)
	assert.NoError(t, svc.EnsureSellerAllowed(ctx, db, pendingNL))

	pendingDE := uuid.New()
	seedProfile(t, db, pendingDE, "DE", enums.ComplianceStatusPending)
	err := svc.EnsureSellerAllowed(ctx, db, pendingDE)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeComplianceBlocked))
}
