package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// PaymentAttempt is one provider payment session for an order. Webhook
// application is idempotent per provider_reference_id.
type PaymentAttempt struct {
	ID                  uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	BuyerID             uuid.UUID                  `gorm:"column:buyer_id;type:uuid;not null"`
	ProviderSessionID   string                     `gorm:"column:provider_session_id;type:text;not null;uniqueIndex:ux_payment_attempts_session"`
	ProviderReferenceID *string                    `gorm:"column:provider_reference_id;type:text;uniqueIndex:ux_payment_attempts_reference"`
	Amount              decimal.Decimal            `gorm:"column:amount;type:numeric(12,2);not null"`
	Status              enums.PaymentAttemptStatus `gorm:"column:status;type:payment_attempt_status;not null;default:'created'"`
	SignatureValid      bool                       `gorm:"column:signature_valid;not null;default:false"`
	CallbackPayload     json.RawMessage            `gorm:"column:callback_payload;type:jsonb"`
	CreatedAt           time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
