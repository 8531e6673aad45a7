package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// Gateway charges a customer for an order. Implementations receive a
// payment token minted by the gateway's client-side SDK; raw card numbers
// and CVVs never reach this service and have no representation here.
type Gateway interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
}

// ChargeInput describes one charge attempt
type ChargeInput struct {
	OrderID      uuid.UUID
	Amount       decimal.Decimal
	Currency     string
	PaymentToken string
	ReceiptEmail string
	Description  string
}

// ChargeResult is what the gateway reports back. CardBrand and CardLast4
// are the only card details the rest of the system ever sees.
type ChargeResult struct {
	ProviderChargeID string
	CardBrand        string
	CardLast4        string
}

// StripeGateway implements Gateway against the Stripe PaymentIntents API
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway creates a Stripe gateway and sets the global API key
func NewStripeGateway(cfg config.PaymentConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	if !strings.HasPrefix(cfg.StripeSecretKey, "sk_") {
		return nil, fmt.Errorf("stripe: secret key must start with sk_")
	}
	stripe.Key = cfg.StripeSecretKey

	return &StripeGateway{logger: logger}, nil
}

// Charge creates and confirms a payment intent for the order amount
func (g *StripeGateway) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	if input.PaymentToken == "" {
		return nil, fmt.Errorf("stripe: payment token is required")
	}

	currency := strings.ToLower(input.Currency)
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(input.Amount.Shift(2).IntPart()),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(input.PaymentToken),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(input.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Metadata: map[string]string{
			"order_id": input.OrderID.String(),
		},
	}
	if input.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(input.ReceiptEmail)
	}
	params.Context = ctx
	params.AddExpand("latest_charge")

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("stripe charge failed",
			zap.String("order_id", input.OrderID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to charge: %w", err)
	}

	result := &ChargeResult{}
	if intent.LatestCharge != nil {
		result.ProviderChargeID = intent.LatestCharge.ID
		if pmd := intent.LatestCharge.PaymentMethodDetails; pmd != nil && pmd.Card != nil {
			result.CardBrand = string(pmd.Card.Brand)
			result.CardLast4 = pmd.Card.Last4
		}
	}

	g.logger.Info("stripe charge succeeded",
		zap.String("order_id", input.OrderID.String()),
		zap.String("charge_id", result.ProviderChargeID))
	return result, nil
}

// DisabledGateway accepts every charge without contacting a provider.
// Used in development and when payment.enabled is false.
type DisabledGateway struct{}

// NewDisabledGateway creates a gateway that approves all charges
func NewDisabledGateway() *DisabledGateway {
	return &DisabledGateway{}
}

// Charge approves the charge without side effects
func (g *DisabledGateway) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	return &ChargeResult{ProviderChargeID: "disabled-" + input.OrderID.String()}, nil
}

var (
	_ Gateway = (*StripeGateway)(nil)
	_ Gateway = (*DisabledGateway)(nil)
)
