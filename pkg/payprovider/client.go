package payprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/config"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
)

// SessionRequest describes the payment to collect for an order.
type SessionRequest struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	ReturnURL string          `json:"return_url"`
}

// Session is the provider's hosted checkout handle.
type Session struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Client talks to the external payment provider over HTTP. When no provider
// URL is configured it issues local sessions so the flow stays testable
// without network access.
type Client struct {
	cfg  config.PaymentsConfig
	http *http.Client
	logg *logger.Logger
}

func NewClient(cfg config.PaymentsConfig, logg *logger.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		logg: logg,
	}
}

// CreateSession opens a hosted checkout session for the given order.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if req.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive")
	}
	if req.ReturnURL == "" {
		req.ReturnURL = c.cfg.ReturnURL
	}

	if strings.TrimSpace(c.cfg.ProviderURL) == "" {
		return c.localSession(ctx, req)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ProviderURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.ProviderAPIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.ProviderAPIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(snippet))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if session.SessionID == "" {
		return nil, fmt.Errorf("provider response missing session id")
	}
	return &session, nil
}

func (c *Client) localSession(ctx context.Context, req SessionRequest) (*Session, error) {
	sessionID := "local-" + uuid.NewString()
	if c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"order_id":   req.OrderID.String(),
			"session_id": sessionID,
		})
		c.logg.Info(logCtx, "issuing local payment session")
	}
	return &Session{
		SessionID:   sessionID,
		RedirectURL: req.ReturnURL + "?session_id=" + sessionID,
	}, nil
}
