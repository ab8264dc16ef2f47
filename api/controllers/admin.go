package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/responses"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/validators"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/compliance"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/finance"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
)

type commissionSetRequest struct {
	Rate          string     `json:"rate" validate:"required"`
	EffectiveFrom *time.Time `json:"effective_from"`
}

// AdminCommissionSet appends a new commission rate version. Orders settled
// before the effective date keep their captured rate.
func AdminCommissionSet(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload commissionSetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(payload.Rate))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate"))
			return
		}

		input := finance.SetCommissionInput{
			Rate:      rate,
			CreatedBy: actor.UserID,
		}
		if payload.EffectiveFrom != nil {
			input.EffectiveFrom = *payload.EffectiveFrom
		}

		setting, err := svc.SetCommissionRate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, setting)
	}
}

// AdminCommissionActive returns the rate applied to orders finalized now.
func AdminCommissionActive(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setting, err := svc.ActiveCommission(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}

// AdminCommissionHistory lists commission rate versions, newest first.
func AdminCommissionHistory(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListCommissionHistory(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type complianceSetRequest struct {
	CountryCode string `json:"country_code" validate:"required,len=2"`
	Status      string `json:"status" validate:"required"`
	ReviewNote  string `json:"review_note"`
}

// AdminComplianceSet records the review verdict for one seller.
func AdminComplianceSet(svc compliance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerID, err := validators.ParsePathUUID(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload complianceSetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseComplianceStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid compliance status"))
			return
		}

		profile, err := svc.SetProfile(r.Context(), compliance.SetProfileInput{
			SellerID:    sellerID,
			CountryCode: payload.CountryCode,
			Status:      status,
			ReviewedBy:  actor.UserID,
			ReviewNote:  payload.ReviewNote,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AdminComplianceGet returns one seller's compliance profile.
func AdminComplianceGet(svc compliance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.ParsePathUUID(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.GetProfile(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AdminComplianceList pages over seller compliance profiles.
func AdminComplianceList(svc compliance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListProfiles(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type deadLetterLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDeadLetter, error)
}

// AdminDeadLetterList exposes events that exhausted their delivery attempts.
func AdminDeadLetterList(dlq deadLetterLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := dlq.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dead letters"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
