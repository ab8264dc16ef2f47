package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/responses"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/validators"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/lots"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
)

type lotCreateRequest struct {
	FoodID     string     `json:"food_id" validate:"required"`
	Quantity   int        `json:"quantity" validate:"required,min=1"`
	ProducedAt *time.Time `json:"produced_at"`
}

// SellerLotCreate registers a freshly produced batch.
func SellerLotCreate(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload lotCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		foodID, err := uuid.Parse(strings.TrimSpace(payload.FoodID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid food_id"))
			return
		}

		input := lots.CreateLotInput{
			SellerID: actor.UserID,
			FoodID:   foodID,
			Quantity: payload.Quantity,
		}
		if payload.ProducedAt != nil {
			input.ProducedAt = *payload.ProducedAt
		}

		view, err := svc.CreateLot(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// SellerLotList returns the seller's lots, newest production first.
func SellerLotList(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := svc.ListSellerLots(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

type lotAdjustRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// SellerLotAdjust applies a signed quantity correction to a lot.
func SellerLotAdjust(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lotID, err := validators.ParsePathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload lotAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AdjustLot(r.Context(), lots.AdjustLotInput{
			SellerID: actor.UserID,
			LotID:    lotID,
			Delta:    payload.Delta,
			Reason:   strings.TrimSpace(payload.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type lotRecallRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// SellerLotRecall pulls a batch from sale. Existing allocations stay put;
// affected orders are reachable through the admin read path.
func SellerLotRecall(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lotID, err := validators.ParsePathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload lotRecallRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RecallLot(r.Context(), lots.RecallLotInput{
			SellerID: actor.UserID,
			LotID:    lotID,
			Reason:   strings.TrimSpace(payload.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminLotOrders lists orders that consumed stock from the given lot.
func AdminLotOrders(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lotID, err := validators.ParsePathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		affected, err := svc.ListOrdersUsingLot(r.Context(), lotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, affected)
	}
}
