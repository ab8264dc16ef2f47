package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/middleware"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/orders"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
)

// actorFromRequest resolves the authenticated principal. The auth middleware
// guarantees both values are present on protected routes; anything else is a
// missing-context bug surfaced as 401.
func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID := middleware.ActorIDFromContext(r.Context())
	role := middleware.ActorRoleFromContext(r.Context())
	if userID == uuid.Nil || role == "" {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	return orders.Actor{UserID: userID, Role: role}, nil
}
