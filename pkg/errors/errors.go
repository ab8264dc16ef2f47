package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

// Ambient codes shared by every handler.
const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Domain codes carried on the wire by the order, payment, inventory and
// finance flows. Each maps to a stable HTTP status.
const (
	CodeOrderNotFound        Code = "ORDER_NOT_FOUND"
	CodeOrderTerminal        Code = "ORDER_TERMINAL"
	CodeOrderInvalidState    Code = "ORDER_INVALID_STATE"
	CodeOrderCancelPolicy    Code = "ORDER_CANCEL_POLICY"
	CodeRoleNotAllowed       Code = "ROLE_NOT_ALLOWED"
	CodeForbiddenOrderScope  Code = "FORBIDDEN_ORDER_SCOPE"
	CodeReasonRequired       Code = "REASON_REQUIRED"
	CodeComplianceRequired   Code = "COMPLIANCE_REQUIRED"
	CodeComplianceBlocked    Code = "COMPLIANCE_BLOCKED"
	CodeDisclosureRequired   Code = "ALLERGEN_DISCLOSURE_REQUIRED"
	CodeDeliveryPinRequired  Code = "DELIVERY_PIN_REQUIRED"
	CodeLotStockInsufficient Code = "LOT_STOCK_INSUFFICIENT"
	CodeInvalidSignature     Code = "INVALID_SIGNATURE"
	CodeSessionNotFound      Code = "SESSION_NOT_FOUND"
	CodeIdempotencyKeyReuse  Code = "IDEMPOTENCY_KEY_REUSE"
	CodeDisputeNotOpen       Code = "DISPUTE_NOT_OPEN"
	CodeSortFieldInvalid     Code = "SORT_FIELD_INVALID"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},

	CodeOrderNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "order not found",
	},
	CodeOrderTerminal: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "order is in a terminal state",
	},
	CodeOrderInvalidState: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "transition not allowed from current state",
		DetailsAllowed: true,
	},
	CodeOrderCancelPolicy: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "order can no longer be cancelled",
	},
	CodeRoleNotAllowed: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "role may not perform this transition",
	},
	CodeForbiddenOrderScope: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "order does not belong to actor",
	},
	CodeReasonRequired: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "a reason is required",
	},
	CodeComplianceRequired: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "seller compliance profile required",
	},
	CodeComplianceBlocked: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "seller compliance profile blocks this action",
	},
	CodeDisclosureRequired: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "allergen disclosure records missing",
	},
	CodeDeliveryPinRequired: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "verified delivery proof required",
	},
	CodeLotStockInsufficient: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "insufficient lot stock",
		DetailsAllowed: true,
	},
	CodeInvalidSignature: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid webhook signature",
	},
	CodeSessionNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "payment session not found",
	},
	CodeIdempotencyKeyReuse: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeDisputeNotOpen: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "dispute is not open",
	},
	CodeSortFieldInvalid: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "sort field not allowed",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
