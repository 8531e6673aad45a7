package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Notifier posts operational events to the team chat channel
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
	NotifyAbandonedCarts(ctx context.Context, count int) error
}

// PaymentSummary is the only payment information allowed to leave the
// service. It cannot hold a card number or CVV by construction; redaction
// is enforced by the type, not by filtering.
type PaymentSummary struct {
	CardBrand string `json:"card_brand,omitempty"`
	CardLast4 string `json:"card_last4,omitempty"`
}

// OrderPlacedEvent describes a completed checkout for the ops channel
type OrderPlacedEvent struct {
	OrderID       string         `json:"order_id"`
	CustomerEmail string         `json:"customer_email"`
	Total         string         `json:"total"`
	ItemCount     int            `json:"item_count"`
	Payment       PaymentSummary `json:"payment"`
}

// WebhookClient posts notifications to a chat webhook URL
type WebhookClient struct {
	cfg        config.NotifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookClient creates a webhook notifier from configuration
func NewWebhookClient(cfg config.NotifyConfig, logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type webhookPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// NotifyOrderPlaced announces a new order in the ops channel
func (c *WebhookClient) NotifyOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	text := fmt.Sprintf("New order %s: %d item(s), %s, customer %s",
		event.OrderID, event.ItemCount, event.Total, event.CustomerEmail)
	if event.Payment.CardLast4 != "" {
		text += fmt.Sprintf(", paid with %s ending %s", event.Payment.CardBrand, event.Payment.CardLast4)
	}
	return c.post(ctx, text)
}

// NotifyAbandonedCarts reports how many carts the cleanup job flagged
func (c *WebhookClient) NotifyAbandonedCarts(ctx context.Context, count int) error {
	return c.post(ctx, fmt.Sprintf("Abandoned cart sweep: %d cart(s) flagged for follow-up", count))
}

func (c *WebhookClient) post(ctx context.Context, text string) error {
	if c.cfg.WebhookURL == "" {
		c.logger.Debug("chat webhook not configured, dropping notification")
		return nil
	}

	bodyBytes, err := json.Marshal(webhookPayload{
		Channel: c.cfg.Channel,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("notify: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("notify: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Warn("chat webhook rejected notification",
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("notify: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Ensure WebhookClient implements Notifier
var _ Notifier = (*WebhookClient)(nil)
