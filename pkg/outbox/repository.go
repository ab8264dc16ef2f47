package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return tx.Create(&event).Error
}

// ClaimDueTx locks up to limit rows due for delivery: fresh pending rows and
// failed rows whose backoff has elapsed. Rows at or past maxAttempts stay
// parked. SKIP LOCKED lets concurrent workers drain disjoint batches.
func (r *Repository) ClaimDueTx(tx *gorm.DB, now time.Time, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.OutboxEvent
	err := dbpkg.ForUpdateSkipLocked(tx).
		Where("status IN ?", []enums.OutboxEventStatus{enums.OutboxEventStatusPending, enums.OutboxEventStatusFailed}).
		Where("attempt_count < ?", maxAttempts).
		Where("next_attempt_at <= ?", now).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkProcessedTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.OutboxEventStatusProcessed,
			"last_error": nil,
		}).Error
}

// RescheduleTx flips the row to failed and pushes it into the future with
// exponential backoff; the claim query picks it up again once due.
func (r *Repository) RescheduleTx(tx *gorm.DB, event models.OutboxEvent, now time.Time, cause error) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	attempts := event.AttemptCount + 1
	msg := truncateError(cause.Error())
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"status":          enums.OutboxEventStatusFailed,
			"attempt_count":   attempts,
			"next_attempt_at": now.Add(RetryBackoff(attempts)),
			"last_error":      msg,
		}).Error
}

// MarkFailedTx parks the row terminally: status failed with the attempt
// count pinned at the cap so the claim query never selects it again. The
// caller dead-letters it in the same transaction.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, maxAttempts int, cause error) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	msg := truncateError(cause.Error())
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.OutboxEventStatusFailed,
			"attempt_count": maxAttempts,
			"last_error":    msg,
		}).Error
}

// CountPending counts rows still awaiting delivery, including failed rows
// that will be retried.
func (r *Repository) CountPending(maxAttempts int) (int64, error) {
	var n int64
	err := r.db.Model(&models.OutboxEvent{}).
		Where("status IN ?", []enums.OutboxEventStatus{enums.OutboxEventStatusPending, enums.OutboxEventStatusFailed}).
		Where("attempt_count < ?", maxAttempts).
		Count(&n).Error
	return n, err
}

// RetryBackoff doubles per attempt: 2m, 4m, 8m, capped at 24h.
func RetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 10 {
		attempts = 10
	}
	backoff := time.Duration(1<<uint(attempts)) * time.Minute
	if backoff > 24*time.Hour {
		backoff = 24 * time.Hour
	}
	return backoff
}

const maxStoredErrorLen = 1024

func truncateError(message string) string {
	if len(message) <= maxStoredErrorLen {
		return message
	}
	return message[:maxStoredErrorLen]
}
