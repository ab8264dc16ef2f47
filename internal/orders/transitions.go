package orders

import (
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
)

type transitionKey struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

// transitionRoles is the single source of truth for the lifecycle. A pair
// missing from this table is never reachable, regardless of role.
var transitionRoles = map[transitionKey]map[enums.ActorRole]bool{
	{enums.OrderStatusPendingSellerApproval, enums.OrderStatusSellerApproved}: {enums.RoleSeller: true},
	{enums.OrderStatusPendingSellerApproval, enums.OrderStatusRejected}:       {enums.RoleSeller: true},
	{enums.OrderStatusSellerApproved, enums.OrderStatusAwaitingPayment}:       {enums.RoleBuyer: true},
	{enums.OrderStatusAwaitingPayment, enums.OrderStatusPaid}:                 {enums.RoleSystem: true},
	{enums.OrderStatusPaid, enums.OrderStatusPreparing}:                       {enums.RoleSeller: true},
	{enums.OrderStatusPreparing, enums.OrderStatusReady}:                      {enums.RoleSeller: true},
	{enums.OrderStatusReady, enums.OrderStatusInDelivery}:                     {enums.RoleSeller: true},
	{enums.OrderStatusReady, enums.OrderStatusDelivered}:                      {enums.RoleSeller: true},
	{enums.OrderStatusInDelivery, enums.OrderStatusDelivered}:                 {enums.RoleSeller: true},
	{enums.OrderStatusDelivered, enums.OrderStatusCompleted}:                  {enums.RoleBuyer: true},
}

var buyerCancelSources = map[enums.OrderStatus]bool{
	enums.OrderStatusPendingSellerApproval: true,
	enums.OrderStatusSellerApproved:        true,
	enums.OrderStatusAwaitingPayment:       true,
	enums.OrderStatusPaid:                  true,
}

var sellerCancelSources = map[enums.OrderStatus]bool{
	enums.OrderStatusPendingSellerApproval: true,
	enums.OrderStatusSellerApproved:        true,
	enums.OrderStatusAwaitingPayment:       true,
}

type transitionDetails struct {
	From enums.OrderStatus `json:"from"`
	To   enums.OrderStatus `json:"to"`
}

// checkTransition validates the (from, to, role) triple against the table.
func checkTransition(from, to enums.OrderStatus, role enums.ActorRole) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeOrderTerminal, "order is in a terminal state")
	}
	roles, ok := transitionRoles[transitionKey{from: from, to: to}]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeOrderInvalidState, "transition not allowed from current state").
			WithDetails(transitionDetails{From: from, To: to})
	}
	if !roles[role] {
		return pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "role may not perform this transition")
	}
	return nil
}

// checkCancel enforces the role-specific cancellation windows. Admins may
// cancel from any non-terminal state.
func checkCancel(from enums.OrderStatus, role enums.ActorRole) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeOrderTerminal, "order is in a terminal state")
	}
	switch role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleBuyer:
		if !buyerCancelSources[from] {
			return pkgerrors.New(pkgerrors.CodeOrderCancelPolicy, "buyer may no longer cancel this order")
		}
		return nil
	case enums.RoleSeller:
		if !sellerCancelSources[from] {
			return pkgerrors.New(pkgerrors.CodeOrderCancelPolicy, "seller may no longer cancel this order")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeRoleNotAllowed, "role may not cancel orders")
	}
}
