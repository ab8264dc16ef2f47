package deliveryproof

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/config"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
)

const pinDigits = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// attemptLimiter counts PIN verification attempts per order. Backed by
// Redis in production so the counter survives process restarts.
type attemptLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	PinAttemptKey(orderID string) string
	Del(ctx context.Context, keys ...string) error
}

// SendPinInput issues (or reissues) the handover PIN for a delivery order.
type SendPinInput struct {
	OrderID  uuid.UUID
	SellerID uuid.UUID
}

// VerifyPinInput checks the PIN presented at handover.
type VerifyPinInput struct {
	OrderID    uuid.UUID
	Pin        string
	VerifiedBy uuid.UUID
}

// PinIssue carries the plaintext PIN back to the caller for out-of-band
// delivery to the buyer. Only the hash is persisted.
type PinIssue struct {
	OrderID   uuid.UUID `json:"order_id"`
	Pin       string    `json:"pin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service manages PIN-based delivery proof and exposes the gate consumed
// by the delivered/completed transitions.
type Service interface {
	SendPin(ctx context.Context, input SendPinInput) (*PinIssue, error)
	VerifyPin(ctx context.Context, input VerifyPinInput) error
	EnsureVerified(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type service struct {
	db      *gorm.DB
	tx      txRunner
	limiter attemptLimiter
	cfg     config.DeliveryProofConfig
}

// NewService builds the delivery proof service.
func NewService(db *gorm.DB, tx txRunner, limiter attemptLimiter, cfg config.DeliveryProofConfig) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("attempt limiter required")
	}
	if cfg.PinTTL <= 0 {
		cfg.PinTTL = 30 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &service{db: db, tx: tx, limiter: limiter, cfg: cfg}, nil
}

// SendPin replaces any previous PIN for the order. Reissuing resets the
// record to pending with a fresh expiry.
func (s *service) SendPin(ctx context.Context, input SendPinInput) (*PinIssue, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	pin, err := generatePin()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pin")
	}
	expiresAt := time.Now().UTC().Add(s.cfg.PinTTL)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.WithContext(ctx).Select("id", "seller_id", "delivery_type", "status").First(&order, "id = ?", input.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.SellerID != input.SellerID {
			return pkgerrors.New(pkgerrors.CodeForbiddenOrderScope, "order does not belong to seller")
		}
		if order.DeliveryType != enums.DeliveryTypeDelivery {
			return pkgerrors.New(pkgerrors.CodeValidation, "pickup orders need no handover pin")
		}
		switch order.Status {
		case enums.OrderStatusReady, enums.OrderStatusInDelivery:
		default:
			return pkgerrors.New(pkgerrors.CodeOrderInvalidState, "order is not out for handover")
		}

		record := models.DeliveryProofRecord{
			ID:        uuid.New(),
			OrderID:   input.OrderID,
			PinHash:   hashPin(pin),
			Status:    enums.DeliveryProofStatusPending,
			ExpiresAt: expiresAt,
		}
		res := tx.WithContext(ctx).
			Model(&models.DeliveryProofRecord{}).
			Where("order_id = ?", input.OrderID).
			Updates(map[string]any{
				"pin_hash":    record.PinHash,
				"status":      enums.DeliveryProofStatusPending,
				"expires_at":  expiresAt,
				"verified_at": nil,
				"verified_by": nil,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "store pin")
		}
		if res.RowsAffected == 0 {
			if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store pin")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// reissue invalidates the old attempt budget
	_ = s.limiter.Del(ctx, s.limiter.PinAttemptKey(input.OrderID.String()))
	return &PinIssue{OrderID: input.OrderID, Pin: pin, ExpiresAt: expiresAt}, nil
}

func (s *service) VerifyPin(ctx context.Context, input VerifyPinInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Pin) != pinDigits {
		return pkgerrors.New(pkgerrors.CodeValidation, "pin must be 6 digits")
	}

	attempts, err := s.limiter.IncrWithTTL(ctx, s.limiter.PinAttemptKey(input.OrderID.String()), s.cfg.PinTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pin attempt")
	}
	if attempts > int64(s.cfg.MaxAttempts) {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many pin attempts, request a new pin")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var record models.DeliveryProofRecord
		if err := tx.WithContext(ctx).First(&record, "order_id = ?", input.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeDeliveryPinRequired, "no pin issued for this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pin record")
		}
		if record.Status == enums.DeliveryProofStatusVerified {
			return nil
		}
		if time.Now().After(record.ExpiresAt) {
			return pkgerrors.New(pkgerrors.CodeDeliveryPinRequired, "pin expired, request a new one")
		}
		presented := hashPin(input.Pin)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(record.PinHash)) != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "pin does not match")
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":      enums.DeliveryProofStatusVerified,
			"verified_at": now,
		}
		if input.VerifiedBy != uuid.Nil {
			updates["verified_by"] = input.VerifiedBy
		}
		if err := tx.WithContext(ctx).
			Model(&models.DeliveryProofRecord{}).
			Where("id = ?", record.ID).
			Updates(updates).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pin verified")
		}
		return nil
	})
}

func (s *service) EnsureVerified(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	conn := s.db
	if tx != nil {
		conn = tx
	}
	var count int64
	err := conn.WithContext(ctx).
		Model(&models.DeliveryProofRecord{}).
		Where("order_id = ?", orderID).
		Where("status = ?", enums.DeliveryProofStatusVerified).
		Count(&count).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check delivery proof")
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeDeliveryPinRequired, "handover pin not verified")
	}
	return nil
}

func generatePin() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < pinDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", pinDigits, n), nil
}

func hashPin(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}
