// Package catalog 套票與會員等級目錄的實作
//
// - StaticCatalog：由設定檔載入，行程內唯讀
// - CachedCatalog：Redis read-through 快取，包裝任一目錄來源
package catalog

import (
	"context"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
)

// Source 同時提供套票與等級的目錄
type Source interface {
	catalog.PackageCatalog
	catalog.TierCatalog
}

// StaticCatalog 固定內容的目錄（設定檔、測試）
type StaticCatalog struct {
	packages []catalog.Package
	byID     map[catalog.PackageID]catalog.Package
	tiers    []catalog.MembershipTier
}

var _ Source = (*StaticCatalog)(nil)

// NewStaticCatalog 建立目錄並驗證每一筆設定
func NewStaticCatalog(packages []catalog.Package, tiers []catalog.MembershipTier) (*StaticCatalog, error) {
	byID := make(map[catalog.PackageID]catalog.Package, len(packages))
	for _, p := range packages {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := byID[p.ID]; exists {
			return nil, catalog.ErrInvalidPackage.WithContext("package_id", string(p.ID), "reason", "duplicate id")
		}
		byID[p.ID] = p
	}
	for _, t := range tiers {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	return &StaticCatalog{
		packages: append([]catalog.Package(nil), packages...),
		byID:     byID,
		tiers:    append([]catalog.MembershipTier(nil), tiers...),
	}, nil
}

func (c *StaticCatalog) FindPackage(_ context.Context, id catalog.PackageID) (catalog.Package, error) {
	p, ok := c.byID[id]
	if !ok {
		return catalog.Package{}, catalog.ErrPackageNotFound.WithContext("package_id", string(id))
	}
	return p, nil
}

func (c *StaticCatalog) ListPackages(_ context.Context) ([]catalog.Package, error) {
	return append([]catalog.Package(nil), c.packages...), nil
}

func (c *StaticCatalog) ListTiers(_ context.Context) ([]catalog.MembershipTier, error) {
	return append([]catalog.MembershipTier(nil), c.tiers...), nil
}
