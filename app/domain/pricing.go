package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places money is rounded to.
const CurrencyPlaces = 2

type PricingRules struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// NewPricingRules parses the configured amounts. The rate is a fraction, 0.08 for 8%.
func NewPricingRules(freeShippingThreshold, shippingFee, taxRate string) (PricingRules, error) {
	var rules PricingRules
	for _, field := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"free shipping threshold", freeShippingThreshold, &rules.FreeShippingThreshold},
		{"shipping fee", shippingFee, &rules.ShippingFee},
		{"tax rate", taxRate, &rules.TaxRate},
	} {
		d, err := decimal.NewFromString(field.value)
		if err != nil {
			return PricingRules{}, fmt.Errorf("%w: %s %q: %v", ErrValidation, field.name, field.value, err)
		}
		if d.IsNegative() {
			return PricingRules{}, fmt.Errorf("%w: %s must not be negative", ErrValidation, field.name)
		}
		*field.dst = d
	}
	return rules, nil
}

type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Quote prices a basket. Shipping is free strictly above the threshold and tax is
// rounded half up to the cent.
func (r PricingRules) Quote(items []OrderItem) Quote {
	q := Quote{Subtotal: decimal.Zero, Shipping: decimal.Zero}
	for _, it := range items {
		q.Subtotal = q.Subtotal.Add(it.Subtotal())
	}
	if q.Subtotal.LessThanOrEqual(r.FreeShippingThreshold) {
		q.Shipping = r.ShippingFee
	}
	q.Tax = q.Subtotal.Mul(r.TaxRate).Round(CurrencyPlaces)
	q.Total = q.Subtotal.Add(q.Shipping).Add(q.Tax)
	return q
}
