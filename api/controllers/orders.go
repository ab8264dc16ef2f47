package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/responses"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/validators"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/orders"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/pagination"
)

type orderItemRequest struct {
	FoodID    string `json:"food_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	UnitPrice string `json:"unit_price" validate:"required"`
}

type orderCreateRequest struct {
	SellerID     string             `json:"seller_id" validate:"required"`
	DeliveryType string             `json:"delivery_type" validate:"required"`
	Currency     string             `json:"currency"`
	Items        []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req orderCreateRequest) toInput(actor orders.Actor) (orders.CreateOrderInput, error) {
	sellerID, err := uuid.Parse(strings.TrimSpace(req.SellerID))
	if err != nil {
		return orders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_id")
	}
	deliveryType, err := enums.ParseDeliveryType(strings.TrimSpace(req.DeliveryType))
	if err != nil {
		return orders.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}

	items := make([]orders.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		foodID, err := uuid.Parse(strings.TrimSpace(item.FoodID))
		if err != nil {
			return orders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid food_id")
		}
		price, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			return orders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_price")
		}
		items = append(items, orders.CreateOrderItemInput{
			FoodID:    foodID,
			Name:      strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	return orders.CreateOrderInput{
		Actor:        actor,
		SellerID:     sellerID,
		DeliveryType: deliveryType,
		Currency:     strings.ToUpper(strings.TrimSpace(req.Currency)),
		Items:        items,
	}, nil
}

// OrderCreate handles the buyer checkout submission.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// OrderDetail returns the full order view for its buyer, seller or an admin.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		detail, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// OrderHistory returns the append-only audit trail of an order.
func OrderHistory(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		events, err := svc.History(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

// OrderList serves both buyer and seller order lists based on the actor role.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := orderFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var list *orders.OrderList
		switch actor.Role {
		case enums.RoleSeller:
			list, err = svc.ListSellerOrders(r.Context(), actor, params, filters)
		default:
			list, err = svc.ListBuyerOrders(r.Context(), actor, params, filters)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessPage(w, list.Orders, map[string]string{"next_cursor": list.NextCursor})
	}
}

func orderFiltersFromQuery(r *http.Request) (orders.OrderFilters, error) {
	var filters orders.OrderFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "from must be RFC3339")
		}
		filters.DateFrom = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "to must be RFC3339")
		}
		filters.DateTo = &to
	}
	return filters, nil
}

type transitionRequest struct {
	Reason *string `json:"reason"`
}

// OrderTransition builds a handler around one lifecycle mutation. All of
// them share the same request shape and response envelope.
func OrderTransition(logg *logger.Logger, apply func(r *http.Request, input orders.TransitionInput) error) http.HandlerFunc {
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

		var payload transitionRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := orders.TransitionInput{
			OrderID: orderID,
			Actor:   actor,
			Reason:  payload.Reason,
		}
		if err := apply(r, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID.String(), "result": "applied"})
	}
}

type statusChangeRequest struct {
	ToStatus string  `json:"to_status" validate:"required"`
	Reason   *string `json:"reason"`
}

// OrderStatusChange applies a lifecycle transition addressed by target status
// instead of a dedicated action path. Payment-managed statuses are rejected;
// only the provider webhook may move an order into or out of payment.
func OrderStatusChange(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload statusChangeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(strings.TrimSpace(payload.ToStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status"))
			return
		}

		input := orders.TransitionInput{
			OrderID: orderID,
			Actor:   actor,
			Reason:  payload.Reason,
		}

		switch target {
		case enums.OrderStatusSellerApproved:
			err = svc.Approve(r.Context(), input)
		case enums.OrderStatusRejected:
			err = svc.Reject(r.Context(), input)
		case enums.OrderStatusCancelled:
			err = svc.Cancel(r.Context(), input)
		case enums.OrderStatusPreparing:
			err = svc.StartPreparing(r.Context(), input)
		case enums.OrderStatusReady:
			err = svc.MarkReady(r.Context(), input)
		case enums.OrderStatusInDelivery:
			err = svc.StartDelivery(r.Context(), input)
		case enums.OrderStatusDelivered:
			err = svc.MarkDelivered(r.Context(), input)
		case enums.OrderStatusCompleted:
			err = svc.Complete(r.Context(), input)
		default:
			err = pkgerrors.New(pkgerrors.CodeOrderInvalidState, "status cannot be requested directly")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID.String(), "status": target.String()})
	}
}
