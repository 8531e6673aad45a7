package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Totals holds the resolved amounts for one checkout. Every amount is
// rounded to two decimal places as it is computed, so the printed
// breakdown always adds up.
type Totals struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Calculator computes checkout totals from configured rates
type Calculator struct {
	freeShippingThreshold decimal.Decimal
	shippingFee           decimal.Decimal
	taxRate               decimal.Decimal
}

// NewCalculator parses the configured checkout rates. Rates are kept as
// strings in configuration so they survive the trip through TOML and env
// vars without float drift.
func NewCalculator(cfg config.CheckoutConfig) (*Calculator, error) {
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("checkout: invalid free_shipping_threshold %q: %w", cfg.FreeShippingThreshold, err)
	}
	fee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return nil, fmt.Errorf("checkout: invalid shipping_fee %q: %w", cfg.ShippingFee, err)
	}
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("checkout: invalid tax_rate %q: %w", cfg.TaxRate, err)
	}
	if threshold.IsNegative() || fee.IsNegative() || rate.IsNegative() {
		return nil, fmt.Errorf("checkout: rates cannot be negative")
	}

	return &Calculator{
		freeShippingThreshold: threshold,
		shippingFee:           fee,
		taxRate:               rate,
	}, nil
}

// Compute derives shipping, tax and the grand total from a subtotal.
// Shipping is free at or above the threshold; tax applies to the
// subtotal only, not to shipping.
func (c *Calculator) Compute(subtotal decimal.Decimal) Totals {
	subtotal = subtotal.Round(2)

	shipping := decimal.Zero
	if subtotal.LessThan(c.freeShippingThreshold) {
		shipping = c.shippingFee.Round(2)
	}

	tax := subtotal.Mul(c.taxRate).Round(2)

	return Totals{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Total:       subtotal.Add(shipping).Add(tax).Round(2),
	}
}
