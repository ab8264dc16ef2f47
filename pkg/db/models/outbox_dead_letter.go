package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// OutboxDeadLetter preserves events that exhausted their retry budget so an
// operator can replay them after fixing the downstream fault.
type OutboxDeadLetter struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OutboxEventID uuid.UUID                  `gorm:"column:outbox_event_id;type:uuid;not null;uniqueIndex:ux_outbox_dlq_event"`
	AggregateType enums.OutboxAggregateType  `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   uuid.UUID                  `gorm:"column:aggregate_id;type:uuid;not null"`
	EventType     enums.OutboxEventType      `gorm:"column:event_type;type:text;not null"`
	Payload       json.RawMessage            `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount  int                        `gorm:"column:attempt_count;not null"`
	Reason        enums.OutboxDLQErrorReason `gorm:"column:reason;type:text;not null"`
	LastError     *string                    `gorm:"column:last_error"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
