package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultRules = PricingRules{
	FreeShippingThreshold: decimal.NewFromInt(100),
	ShippingFee:           decimal.NewFromInt(10),
	TaxRate:               decimal.RequireFromString("0.08"),
}

func TestPricingRules_QuoteWithShipping(t *testing.T) {
	q := defaultRules.Quote([]OrderItem{
		{Quantity: 2, Price: decimal.RequireFromString("25.00")},
		{Quantity: 1, Price: decimal.RequireFromString("19.99")},
	})

	assert.Equal(t, "69.99", q.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", q.Shipping.StringFixed(2))
	assert.Equal(t, "5.60", q.Tax.StringFixed(2))
	assert.Equal(t, "85.59", q.Total.StringFixed(2))
}

func TestPricingRules_QuoteFreeShipping(t *testing.T) {
	q := defaultRules.Quote([]OrderItem{{Quantity: 1, Price: decimal.RequireFromString("100.01")}})

	assert.True(t, q.Shipping.IsZero())
	assert.Equal(t, "8.00", q.Tax.StringFixed(2))
	assert.Equal(t, "108.01", q.Total.StringFixed(2))
}

func TestPricingRules_QuoteAtThreshold(t *testing.T) {
	q := defaultRules.Quote([]OrderItem{{Quantity: 4, Price: decimal.NewFromInt(25)}})
	assert.True(t, q.Shipping.Equal(decimal.NewFromInt(10)))
}

func TestPricingRules_TaxRoundsHalfUp(t *testing.T) {
	// 0.0625 * 0.08 = 0.005
	q := defaultRules.Quote([]OrderItem{{Quantity: 1, Price: decimal.RequireFromString("0.0625")}})
	assert.Equal(t, "0.01", q.Tax.StringFixed(2))

	q = defaultRules.Quote([]OrderItem{{Quantity: 1, Price: decimal.RequireFromString("7.03")}})
	assert.Equal(t, "0.56", q.Tax.StringFixed(2))
}

func TestNewPricingRules(t *testing.T) {
	rules, err := NewPricingRules("100", "10.00", "0.08")
	require.NoError(t, err)
	assert.True(t, rules.TaxRate.Equal(decimal.RequireFromString("0.08")))

	_, err = NewPricingRules("abc", "10", "0.08")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewPricingRules("100", "-1", "0.08")
	assert.ErrorIs(t, err, ErrValidation)
}
