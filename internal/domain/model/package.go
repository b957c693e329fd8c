package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Billing periods a pricing tier can be keyed on.
const (
	BillingPeriodMonthly = "monthly"
	BillingPeriodAnnual  = "annual"
)

// Package is a sellable rank-tracking plan with per-period pricing tiers.
type Package struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Description string `json:"description,omitempty"`
	// Type is 'subscription' or 'one_time'.
	Type         string    `gorm:"size:20;not null;default:'subscription'" json:"type"`
	KeywordLimit int       `gorm:"not null;default:0" json:"keyword_limit"`
	IsActive     bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:now()" json:"updated_at"`

	// Relations
	Tiers []PricingTier `gorm:"foreignKey:PackageID" json:"tiers,omitempty"`
}

// TableName specifies the table name for GORM
func (Package) TableName() string {
	return "packages"
}

// PricingTier is one billing-period price row for a package. A promotional
// price, when set, always wins over the regular price.
type PricingTier struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	PackageID    int64            `gorm:"not null;uniqueIndex:idx_package_period" json:"package_id"`
	Period       string           `gorm:"size:20;not null;uniqueIndex:idx_package_period" json:"period"`
	RegularPrice decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"regular_price"`
	PromoPrice   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"promo_price,omitempty"`
	Currency     string           `gorm:"size:3;not null;default:'USD'" json:"currency"`
	CreatedAt    time.Time        `gorm:"default:now()" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PricingTier) TableName() string {
	return "pricing_tiers"
}

// PriceFor resolves the charge price for a billing period. The second return
// is false when the package has no tier for the period; callers must treat
// that as a pricing defect, never as a zero price.
func (p *Package) PriceFor(period string) (decimal.Decimal, string, bool) {
	for i := range p.Tiers {
		tier := &p.Tiers[i]
		if tier.Period != period {
			continue
		}
		if tier.PromoPrice != nil {
			return *tier.PromoPrice, tier.Currency, true
		}
		return tier.RegularPrice, tier.Currency, true
	}
	return decimal.Zero, "", false
}
