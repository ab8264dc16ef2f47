package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/responses"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/validators"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/disclosures"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
)

// DisclosureAcknowledge records the buyer's allergen acknowledgement for the
// phase named in the path. The URL uses dashes; the enum uses underscores.
func DisclosureAcknowledge(svc disclosures.Service, logg *logger.Logger) http.HandlerFunc {
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

		raw := strings.ReplaceAll(chi.URLParam(r, "phase"), "-", "_")
		phase, err := enums.ParseDisclosurePhase(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid disclosure phase"))
			return
		}

		record, err := svc.Acknowledge(r.Context(), disclosures.AcknowledgeInput{
			OrderID: orderID,
			BuyerID: actor.UserID,
			Phase:   phase,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// DisclosureList returns all acknowledgement records on an order.
func DisclosureList(svc disclosures.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		records, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}
