package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/responses"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/validators"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/finance"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
)

// sellerScopedID resolves the {sellerId} path segment and rejects sellers
// reading someone else's books. Admins may read any seller.
func sellerScopedID(r *http.Request) (uuid.UUID, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return uuid.Nil, err
	}
	sellerID, err := validators.ParsePathUUID(r, "sellerId")
	if err != nil {
		return uuid.Nil, err
	}
	if actor.Role != enums.RoleAdmin && actor.UserID != sellerID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "finance data belongs to another seller")
	}
	return sellerID, nil
}

func summaryFiltersFromQuery(r *http.Request) (finance.SummaryFilters, error) {
	var filters finance.SummaryFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp")
		}
		filters.From = &ts
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp")
		}
		filters.To = &ts
	}
	return filters, nil
}

// SellerFinanceSummary returns the seller's settled totals over a range.
func SellerFinanceSummary(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := sellerScopedID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := summaryFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.SellerSummary(r.Context(), sellerID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// SellerFinanceReport returns the per-order settlement rows. Sorting is
// restricted to a fixed field set inside the service.
func SellerFinanceReport(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := sellerScopedID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := finance.ReportRequest{
			SellerID:  sellerID,
			SortField: strings.TrimSpace(r.URL.Query().Get("sort")),
			SortDesc:  strings.EqualFold(r.URL.Query().Get("order"), "desc"),
			Page:      page,
			PageSize:  pageSize,
		}
		rows, err := svc.SellerReport(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// OrderFinanceDetail returns the immutable snapshot plus its adjustments.
func OrderFinanceDetail(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, adjustments, err := svc.GetOrderFinance(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"snapshot":    snapshot,
			"adjustments": adjustments,
		})
	}
}
