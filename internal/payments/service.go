package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/orders"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/config"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox/payloads"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/payprovider"
)

const webhookStatusSucceeded = "succeeded"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderLifecycle interface {
	Get(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*orders.OrderDetail, error)
	BeginPaymentTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor orders.Actor) (*models.Order, error)
	MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
}

type sessionCreator interface {
	CreateSession(ctx context.Context, req payprovider.SessionRequest) (*payprovider.Session, error)
}

// Service runs the capture flow. Start opens a provider session, HandleWebhook
// is the only path that marks an order paid, and HandleReturn never mutates.
type Service interface {
	Start(ctx context.Context, input StartPaymentInput) (*StartPaymentResult, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error)
	HandleReturn(ctx context.Context, sessionID string) (*ReturnView, error)
}

type service struct {
	db       *gorm.DB
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	orders   orderLifecycle
	sessions sessionCreator
	cfg      config.PaymentsConfig
}

// NewService builds the payment capture service.
func NewService(db *gorm.DB, repo Repository, tx txRunner, outboxSvc outboxPublisher, orderSvc orderLifecycle, sessions sessionCreator, cfg config.PaymentsConfig) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order lifecycle required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session creator required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("webhook secret required")
	}
	return &service{
		db:       db,
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		orders:   orderSvc,
		sessions: sessions,
		cfg:      cfg,
	}, nil
}

// Start opens a hosted checkout session and records the attempt. The order
// moves to awaiting_payment in the same transaction as the attempt row; the
// provider call happens before it so a provider failure leaves no state.
func (s *service) Start(ctx context.Context, input StartPaymentInput) (*StartPaymentResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	buyer := orders.Actor{UserID: input.BuyerID, Role: enums.RoleBuyer}

	detail, err := s.orders.Get(ctx, buyer, input.OrderID)
	if err != nil {
		return nil, err
	}
	status := detail.Order.Status
	if status != enums.OrderStatusSellerApproved && status != enums.OrderStatusAwaitingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeOrderInvalidState, "order is not payable").
			WithDetails(map[string]string{"status": string(status)})
	}

	session, err := s.sessions.CreateSession(ctx, payprovider.SessionRequest{
		OrderID:   detail.Order.ID,
		Amount:    detail.Order.TotalAmount,
		Currency:  detail.Order.Currency,
		ReturnURL: input.ReturnURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}

	attempt := &models.PaymentAttempt{
		OrderID:           detail.Order.ID,
		BuyerID:           input.BuyerID,
		ProviderSessionID: session.SessionID,
		Amount:            detail.Order.TotalAmount,
		Status:            enums.PaymentAttemptStatusCreated,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.BeginPaymentTx(ctx, tx, detail.Order.ID, buyer); err != nil {
			return err
		}
		_, err := s.repo.WithTx(tx).Create(ctx, attempt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &StartPaymentResult{
		AttemptID:   attempt.ID,
		SessionID:   session.SessionID,
		RedirectURL: session.RedirectURL,
	}, nil
}

// HandleWebhook verifies the provider signature and applies the callback.
// Replays of an already-applied reference return Idempotent without side
// effects; the attempt row lock serializes concurrent deliveries.
func (s *service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	if err := VerifySignature(s.cfg.WebhookSecret, rawBody, signature); err != nil {
		return nil, err
	}
	payload, err := decodeWebhookPayload(rawBody)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	if strings.TrimSpace(payload.ProviderSessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider session id required")
	}
	if strings.TrimSpace(payload.ProviderReferenceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference id required")
	}

	var result WebhookResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		attempt, err := repo.FindBySessionIDForUpdate(ctx, payload.ProviderSessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeSessionNotFound, "no payment attempt for session")
			}
			return err
		}
		result.OrderID = attempt.OrderID

		if attempt.Status == enums.PaymentAttemptStatusSucceeded {
			result.Idempotent = true
			return nil
		}

		updates := map[string]any{
			"signature_valid":       true,
			"callback_payload":      json.RawMessage(rawBody),
			"provider_reference_id": payload.ProviderReferenceID,
		}
		if payload.Status != webhookStatusSucceeded {
			updates["status"] = enums.PaymentAttemptStatusFailed
			return repo.Update(ctx, attempt.ID, updates)
		}

		if _, err := s.orders.MarkPaidTx(ctx, tx, attempt.OrderID); err != nil {
			return err
		}
		updates["status"] = enums.PaymentAttemptStatusSucceeded
		if err := repo.Update(ctx, attempt.ID, updates); err != nil {
			return err
		}
		result.Applied = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   attempt.ID,
			Actor:         &outbox.ActorRef{Role: string(enums.RoleSystem)},
			Data: payloads.PaymentConfirmedEvent{
				OrderID:             attempt.OrderID,
				PaymentAttemptID:    attempt.ID,
				ProviderReferenceID: payload.ProviderReferenceID,
				Amount:              attempt.Amount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// HandleReturn resolves the browser redirect into a read-only view. Return
// URLs are client-controlled, so this path must never transition the order.
func (s *service) HandleReturn(ctx context.Context, sessionID string) (*ReturnView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	attempt, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeSessionNotFound, "no payment attempt for session")
		}
		return nil, err
	}
	var order models.Order
	err = s.db.WithContext(ctx).
		Where("id = ?", attempt.OrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &ReturnView{
		OrderID:       attempt.OrderID,
		AttemptStatus: attempt.Status,
		OrderStatus:   order.Status,
	}, nil
}
