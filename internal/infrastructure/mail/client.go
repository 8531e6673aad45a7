package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxResponseSize limits the response body size read from the mail API
const maxResponseSize = 1 * 1024 * 1024

// Sender delivers transactional email. Checkout and signup flows depend on
// this interface, not the HTTP client, so tests can swap it out.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a single transactional email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Client sends email through an HTTP transactional mail API
type Client struct {
	cfg        config.MailConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a mail client from configuration
func NewClient(cfg config.MailConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type sendRequest struct {
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name,omitempty"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	TextBody    string `json:"text_body"`
}

// Send delivers one message. Callers treat failures as non-fatal; an order
// that cannot be confirmed by email is still an order.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.cfg.APIURL == "" {
		c.logger.Debug("mail not configured, dropping message",
			zap.String("subject", msg.Subject))
		return nil
	}

	payload := sendRequest{
		FromAddress: c.cfg.FromAddress,
		FromName:    c.cfg.FromName,
		To:          msg.To,
		Subject:     msg.Subject,
		TextBody:    msg.Body,
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mail: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("mail: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		c.logger.Warn("mail API rejected message",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body))
		return fmt.Errorf("mail: HTTP %d", resp.StatusCode)
	}

	c.logger.Debug("mail sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// Ensure Client implements Sender
var _ Sender = (*Client)(nil)
