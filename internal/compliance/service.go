package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
)

// preApprovalCountries lists jurisdictions where home-food sellers must be
// explicitly approved before trading; a pending profile blocks them.
var preApprovalCountries = map[string]bool{
	"DE": true,
	"FR": true,
	"IT": true,
}

// SetProfileInput is the admin review verdict for one seller.
type SetProfileInput struct {
	SellerID    uuid.UUID
	CountryCode string
	Status      enums.ComplianceStatus
	ReviewedBy  uuid.UUID
	ReviewNote  string
}

// Service manages seller compliance profiles and exposes the gate consumed
// by the order lifecycle.
type Service interface {
	SetProfile(ctx context.Context, input SetProfileInput) (*models.SellerComplianceProfile, error)
	GetProfile(ctx context.Context, sellerID uuid.UUID) (*models.SellerComplianceProfile, error)
	ListProfiles(ctx context.Context, limit int) ([]models.SellerComplianceProfile, error)
	EnsureSellerAllowed(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the compliance service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("compliance repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) SetProfile(ctx context.Context, input SetProfileInput) (*models.SellerComplianceProfile, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid compliance status")
	}
	country := strings.ToUpper(strings.TrimSpace(input.CountryCode))
	if len(country) != 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country code must be ISO 3166-1 alpha-2")
	}
	if input.ReviewedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "reviewer identity missing")
	}

	profile := &models.SellerComplianceProfile{
		SellerID:    input.SellerID,
		CountryCode: country,
		Status:      input.Status,
		ReviewedBy:  &input.ReviewedBy,
	}
	if note := strings.TrimSpace(input.ReviewNote); note != "" {
		profile.ReviewNote = &note
	}
	stored, err := s.repo.Upsert(ctx, profile)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store compliance profile")
	}
	return stored, nil
}

func (s *service) GetProfile(ctx context.Context, sellerID uuid.UUID) (*models.SellerComplianceProfile, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	profile, err := s.repo.FindBySeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "compliance profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load compliance profile")
	}
	return profile, nil
}

func (s *service) ListProfiles(ctx context.Context, limit int) ([]models.SellerComplianceProfile, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list compliance profiles")
	}
	return rows, nil
}

// EnsureSellerAllowed is the gate applied to every seller-driven order
// transition. Missing profile and blocked statuses fail differently so the
// client can distinguish "register first" from "banned".
func (s *service) EnsureSellerAllowed(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) error {
	profile, err := s.repo.WithTx(tx).FindBySeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeComplianceRequired, "seller has no compliance profile")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load compliance profile")
	}
	switch profile.Status {
	case enums.ComplianceStatusApproved:
		return nil
	case enums.ComplianceStatusPending:
		if preApprovalCountries[profile.CountryCode] {
			return pkgerrors.New(pkgerrors.CodeComplianceBlocked, "jurisdiction requires approval before selling")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeComplianceBlocked, "seller compliance status blocks this action")
	}
}
