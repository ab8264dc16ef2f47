package payments

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// StartPaymentInput opens a provider checkout session for an order.
type StartPaymentInput struct {
	OrderID   uuid.UUID
	BuyerID   uuid.UUID
	ReturnURL string
}

// StartPaymentResult hands the hosted checkout handle back to the client.
type StartPaymentResult struct {
	AttemptID   uuid.UUID `json:"attempt_id"`
	SessionID   string    `json:"session_id"`
	RedirectURL string    `json:"redirect_url"`
}

// WebhookPayload is the provider's signed callback body.
type WebhookPayload struct {
	ProviderSessionID   string          `json:"provider_session_id"`
	ProviderReferenceID string          `json:"provider_reference_id"`
	Status              string          `json:"status"`
	Amount              decimal.Decimal `json:"amount"`
}

// WebhookResult reports the outcome of applying a verified callback.
// Idempotent is true when the payload had already been applied.
type WebhookResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	Applied    bool      `json:"applied"`
	Idempotent bool      `json:"idempotent"`
}

// ReturnView is the informational state shown after the browser redirect.
// Reading it never mutates the order.
type ReturnView struct {
	OrderID       uuid.UUID                  `json:"order_id"`
	AttemptStatus enums.PaymentAttemptStatus `json:"attempt_status"`
	OrderStatus   enums.OrderStatus          `json:"order_status"`
}

func decodeWebhookPayload(raw []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
