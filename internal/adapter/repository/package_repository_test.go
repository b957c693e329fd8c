package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ranktrackhq/billing-service/internal/domain/model"
)

func TestPackageRepository_GetActiveByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPackageRepository(db, zap.NewNop())
	ctx := context.Background()

	promo := decimal.NewFromFloat(19.99)
	pkg := &model.Package{
		Name:     "Pro Tracker",
		Slug:     "pro-tracker",
		Type:     "subscription",
		IsActive: true,
		Tiers: []model.PricingTier{
			{Period: model.BillingPeriodMonthly, RegularPrice: decimal.NewFromFloat(29.99), PromoPrice: &promo, Currency: "USD"},
			{Period: model.BillingPeriodAnnual, RegularPrice: decimal.NewFromFloat(299.00), Currency: "USD"},
		},
	}
	require.NoError(t, db.Create(pkg).Error)

	inactive := &model.Package{Name: "Legacy", Slug: "legacy", Type: "subscription", IsActive: false}
	require.NoError(t, db.Create(inactive).Error)

	got, err := repo.GetActiveByID(ctx, pkg.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Tiers, 2)

	price, currency, ok := got.PriceFor(model.BillingPeriodMonthly)
	assert.True(t, ok)
	assert.Equal(t, "USD", currency)
	assert.True(t, price.Equal(promo))

	// Inactive packages read as missing.
	hidden, err := repo.GetActiveByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Nil(t, hidden)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "pro-tracker", active[0].Slug)
}
