package config

import (
	"fmt"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/duration"
	"github.com/shopspring/decimal"
)

// ToPackages 轉換為領域套票，並檢查代碼不重複
func (c CatalogConfig) ToPackages() ([]catalog.Package, error) {
	seen := make(map[string]bool, len(c.Packages))
	out := make([]catalog.Package, 0, len(c.Packages))

	for _, p := range c.Packages {
		price, err := decimal.NewFromString(p.ListPrice)
		if err != nil {
			return nil, fmt.Errorf("catalog.packages[%s].list_price: %w", p.ID, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalog.packages: duplicate id %q", p.ID)
		}
		seen[p.ID] = true

		pkg := catalog.Package{
			ID:             catalog.PackageID(p.ID),
			Name:           p.Name,
			DurationAmount: p.DurationAmount,
			DurationUnit:   duration.ParseUnit(p.DurationUnit),
			ListPrice:      price,
		}
		if err := pkg.Validate(); err != nil {
			return nil, fmt.Errorf("catalog.packages[%s]: %w", p.ID, err)
		}
		out = append(out, pkg)
	}
	return out, nil
}

// ToTiers 轉換為領域會員等級
func (c CatalogConfig) ToTiers() ([]catalog.MembershipTier, error) {
	out := make([]catalog.MembershipTier, 0, len(c.Tiers))

	for _, t := range c.Tiers {
		minSpend, err := decimal.NewFromString(t.MinSpend)
		if err != nil {
			return nil, fmt.Errorf("catalog.tiers[%s].min_spend: %w", t.ID, err)
		}

		active := true
		if t.Active != nil {
			active = *t.Active
		}

		tier := catalog.MembershipTier{
			ID:          catalog.TierID(t.ID),
			DisplayName: t.DisplayName,
			MachineName: t.MachineName,
			Rank:        t.Rank,
			Color:       t.Color,
			Active:      active,
			Criteria: catalog.TierCriteria{
				MinSpend:             minSpend,
				MinContinuousMonths:  t.MinContinuousMonths,
				MinCompletedSessions: t.MinCompletedSessions,
			},
		}
		if err := tier.Validate(); err != nil {
			return nil, fmt.Errorf("catalog.tiers[%s]: %w", t.ID, err)
		}
		out = append(out, tier)
	}
	return out, nil
}
