package domain

import "github.com/shopspring/decimal"

// PricingConfig holds the injected pricing rules. Rates multiply cent
// amounts through decimal arithmetic with half-up rounding so totals are
// exact and reproducible.
type PricingConfig struct {
	// TaxRate is the flat tax rate applied to the subtotal, e.g. 0.08.
	TaxRate decimal.Decimal
	// FreeShippingThreshold is the subtotal in cents above which shipping
	// is free. The comparison is strict: subtotal must exceed it.
	FreeShippingThreshold int64
	// ShippingFlat is the flat shipping cost in cents below the threshold.
	ShippingFlat int64
	// Coupons maps coupon code to percent discount [0,100] on the subtotal.
	Coupons map[string]int
}

// DefaultPricingConfig returns the stock pricing rules: 8% tax, free
// shipping over $50, $5.99 flat shipping, and the WELCOME10 coupon for 10%.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		TaxRate:               decimal.NewFromFloat(0.08),
		FreeShippingThreshold: 5000,
		ShippingFlat:          599,
		Coupons:               map[string]int{"WELCOME10": 10},
	}
}

// Quote is the priced breakdown of an order, all amounts in cents.
type Quote struct {
	Subtotal     int64 `json:"subtotal"`
	Tax          int64 `json:"tax"`
	ShippingCost int64 `json:"shipping_cost"`
	Discount     int64 `json:"discount"`
	Total        int64 `json:"total"`
}

// Price computes the order totals for a subtotal and optional coupon code.
// Unknown coupon codes yield zero discount rather than an error.
func (p PricingConfig) Price(subtotal int64, couponCode string) Quote {
	q := Quote{Subtotal: subtotal}

	sub := decimal.NewFromInt(subtotal)
	q.Tax = sub.Mul(p.TaxRate).Round(0).IntPart()

	if subtotal <= p.FreeShippingThreshold {
		q.ShippingCost = p.ShippingFlat
	}

	if percent, ok := p.Coupons[couponCode]; ok && percent > 0 {
		rate := decimal.NewFromInt(int64(percent)).Div(decimal.NewFromInt(100))
		q.Discount = sub.Mul(rate).Round(0).IntPart()
	}

	q.Total = q.Subtotal + q.Tax + q.ShippingCost - q.Discount
	return q
}
