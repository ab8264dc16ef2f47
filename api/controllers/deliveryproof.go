package controllers

import (
	"net/http"
	"strings"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/responses"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/validators"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/deliveryproof"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
)

// DeliveryPinSend issues (or reissues) the handover PIN. The plaintext PIN
// goes back to the seller for out-of-band delivery to the buyer.
func DeliveryPinSend(svc deliveryproof.Service, logg *logger.Logger) http.HandlerFunc {
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

		issue, err := svc.SendPin(r.Context(), deliveryproof.SendPinInput{
			OrderID:  orderID,
			SellerID: actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, issue)
	}
}

type pinVerifyRequest struct {
	Pin string `json:"pin" validate:"required,len=6"`
}

// DeliveryPinVerify checks the PIN presented at handover.
func DeliveryPinVerify(svc deliveryproof.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload pinVerifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.VerifyPin(r.Context(), deliveryproof.VerifyPinInput{
			OrderID:    orderID,
			Pin:        strings.TrimSpace(payload.Pin),
			VerifiedBy: actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID.String(), "result": "verified"})
	}
}
