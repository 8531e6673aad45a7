package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWebhookClient(url string) *WebhookClient {
	return NewWebhookClient(config.NotifyConfig{
		WebhookURL: url,
		Channel:    "#orders",
		Timeout:    5 * time.Second,
	}, zap.NewNop())
}

func TestWebhookClient_NotifyOrderPlaced(t *testing.T) {
	t.Run("posts order summary to the channel", func(t *testing.T) {
		var got webhookPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := newTestWebhookClient(server.URL).NotifyOrderPlaced(context.Background(), OrderPlacedEvent{
			OrderID:       "7c1d9f3e",
			CustomerEmail: "buyer@example.com",
			Total:         "59.40 USD",
			ItemCount:     3,
			Payment:       PaymentSummary{CardBrand: "visa", CardLast4: "4242"},
		})

		assert.NoError(t, err)
		assert.Equal(t, "#orders", got.Channel)
		assert.Contains(t, got.Text, "59.40 USD")
		assert.Contains(t, got.Text, "visa ending 4242")
	})

	// Payment data must never leave the trust boundary unencrypted/unredacted.
	// The outbound payload may carry at most a card brand and last four
	// digits; a full PAN or CVV must be unrepresentable in what we send.
	t.Run("never transmits raw card data", func(t *testing.T) {
		var rawBody []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error
			rawBody, err = io.ReadAll(r.Body)
			require.NoError(t, err)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		// Simulate a charge made with a real-looking card. Only the summary
		// the gateway echoes back is available to the event.
		cardNumber := "4242424242424242"
		cvv := "123"

		err := newTestWebhookClient(server.URL).NotifyOrderPlaced(context.Background(), OrderPlacedEvent{
			OrderID:       "7c1d9f3e",
			CustomerEmail: "buyer@example.com",
			Total:         "59.40 USD",
			ItemCount:     3,
			Payment:       PaymentSummary{CardBrand: "visa", CardLast4: cardNumber[len(cardNumber)-4:]},
		})
		require.NoError(t, err)

		body := string(rawBody)
		assert.NotContains(t, body, cardNumber)
		assert.NotContains(t, body, cvv)
		assert.Contains(t, body, "4242")
	})

	t.Run("returns error when webhook rejects", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		err := newTestWebhookClient(server.URL).NotifyOrderPlaced(context.Background(), OrderPlacedEvent{})
		assert.Error(t, err)
	})

	t.Run("no-op when webhook URL is empty", func(t *testing.T) {
		err := newTestWebhookClient("").NotifyAbandonedCarts(context.Background(), 4)
		assert.NoError(t, err)
	})
}

func TestWebhookClient_NotifyAbandonedCarts(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestWebhookClient(server.URL).NotifyAbandonedCarts(context.Background(), 4)

	assert.NoError(t, err)
	assert.Contains(t, got.Text, "4 cart(s)")
}
