package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// OrderEvent is the append-only audit trail of every transition. Rows are
// written once and never updated.
type OrderEvent struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ActorUserID uuid.UUID         `gorm:"column:actor_user_id;type:uuid;not null"`
	ActorRole   enums.ActorRole   `gorm:"column:actor_role;type:text;not null"`
	FromStatus  enums.OrderStatus `gorm:"column:from_status;type:order_status"`
	ToStatus    enums.OrderStatus `gorm:"column:to_status;type:order_status;not null"`
	Reason      *string           `gorm:"column:reason"`
	Payload     json.RawMessage   `gorm:"column:payload;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
