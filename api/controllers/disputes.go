package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/responses"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/validators"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/disputes"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
)

type refundRequest struct {
	Amount string `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// RefundRequest opens a dispute case against the buyer's order.
func RefundRequest(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		dispute, err := svc.Open(r.Context(), disputes.OpenDisputeInput{
			OrderID:        orderID,
			BuyerID:        actor.UserID,
			DisputedAmount: amount,
			Reason:         strings.TrimSpace(payload.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dispute)
	}
}

// DisputeListForOrder returns the dispute history of one order.
func DisputeListForOrder(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// DisputeListMine returns the caller's dispute cases across all orders.
func DisputeListMine(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListForBuyer(r.Context(), actor.UserID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminDisputeList returns open cases for the triage queue.
func AdminDisputeList(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListOpen(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminDisputeReview moves an open case to under_review.
func AdminDisputeReview(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		disputeID, err := validators.ParsePathUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.MarkUnderReview(r.Context(), disputeID, actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

type liabilityRatioRequest struct {
	Seller   string `json:"seller" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type disputeResolveRequest struct {
	Status         string                 `json:"status" validate:"required"`
	LiabilityParty *string                `json:"liability_party"`
	LiabilityRatio *liabilityRatioRequest `json:"liability_ratio"`
	ResolutionNote string                 `json:"resolution_note"`
}

// AdminDisputeResolve flips the case terminal and apportions the liability
// onto the seller's ledger.
func AdminDisputeResolve(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		disputeID, err := validators.ParsePathUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload disputeResolveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseDisputeStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid dispute status"))
			return
		}

		input := disputes.ResolveDisputeInput{
			DisputeID:      disputeID,
			Status:         status,
			ResolutionNote: strings.TrimSpace(payload.ResolutionNote),
			ResolvedBy:     actor.UserID,
		}
		if payload.LiabilityParty != nil {
			party, err := enums.ParseLiabilityParty(strings.TrimSpace(*payload.LiabilityParty))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid liability party"))
				return
			}
			input.LiabilityParty = &party
		}
		if payload.LiabilityRatio != nil {
			seller, err := decimal.NewFromString(strings.TrimSpace(payload.LiabilityRatio.Seller))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller ratio"))
				return
			}
			platform, err := decimal.NewFromString(strings.TrimSpace(payload.LiabilityRatio.Platform))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform ratio"))
				return
			}
			input.LiabilityRatio = &disputes.LiabilityRatio{Seller: seller, Platform: platform}
		}

		dispute, err := svc.Resolve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}
