package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPackagePriceFor(t *testing.T) {
	promo := decimal.NewFromFloat(19.99)
	pkg := &Package{
		ID:   1,
		Name: "Pro Tracker",
		Tiers: []PricingTier{
			{Period: BillingPeriodMonthly, RegularPrice: decimal.NewFromFloat(29.99), PromoPrice: &promo, Currency: "USD"},
			{Period: BillingPeriodAnnual, RegularPrice: decimal.NewFromFloat(299.00), Currency: "USD"},
		},
	}

	t.Run("promo price wins", func(t *testing.T) {
		price, currency, ok := pkg.PriceFor(BillingPeriodMonthly)
		assert.True(t, ok)
		assert.Equal(t, "USD", currency)
		assert.True(t, price.Equal(promo))
	})

	t.Run("regular price without promo", func(t *testing.T) {
		price, _, ok := pkg.PriceFor(BillingPeriodAnnual)
		assert.True(t, ok)
		assert.True(t, price.Equal(decimal.NewFromFloat(299.00)))
	})

	t.Run("missing tier is a miss, not zero", func(t *testing.T) {
		_, _, ok := pkg.PriceFor("quarterly")
		assert.False(t, ok)
	})
}

func TestTransactionStatusTerminal(t *testing.T) {
	assert.False(t, TransactionStatusPending.Terminal())
	assert.True(t, TransactionStatusCompleted.Terminal())
	assert.True(t, TransactionStatusFailed.Terminal())
	assert.True(t, TransactionStatusCancelled.Terminal())
}
