// Package catalog 定義唯讀設定資料：套票（Package）與會員等級（MembershipTier）
//
// 目錄由外部注入（靜態設定、Redis 快取），核心只依賴這裡的介面。
package catalog

import (
	"context"

	"github.com/jackyeh168/gym_crm/src/internal/domain/duration"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PackageID 套票代碼（設定檔中的穩定字串，例如 "monthly-basic"）
type PackageID string

// TierID 會員等級代碼
type TierID string

// Package 可購買的套票
type Package struct {
	ID             PackageID       `json:"id"`
	Name           string          `json:"name"`
	DurationAmount int             `json:"duration_amount"`
	DurationUnit   duration.Unit   `json:"duration_unit"`
	ListPrice      decimal.Decimal `json:"list_price"`
}

// TierCriteria 等級門檻
//
// MinSpend 必填；MinContinuousMonths / MinCompletedSessions 為 nil 表示不設門檻。
type TierCriteria struct {
	MinSpend             decimal.Decimal `json:"min_spend"`
	MinContinuousMonths  *int            `json:"min_continuous_months,omitempty"`
	MinCompletedSessions *int            `json:"min_completed_sessions,omitempty"`
}

// MembershipTier 會員等級
type MembershipTier struct {
	ID          TierID       `json:"id"`
	DisplayName string       `json:"display_name"`
	MachineName string       `json:"machine_name"`
	Rank        int          `json:"rank"`
	Color       string       `json:"color"`
	Active      bool         `json:"active"`
	Criteria    TierCriteria `json:"criteria"`
}

// PackageCatalog 套票目錄
type PackageCatalog interface {
	// FindPackage 找不到時回傳 ErrPackageNotFound
	FindPackage(ctx context.Context, id PackageID) (Package, error)
	ListPackages(ctx context.Context) ([]Package, error)
}

// TierCatalog 會員等級目錄
type TierCatalog interface {
	// ListTiers 回傳全部等級（含停用），由呼叫端過濾
	ListTiers(ctx context.Context) ([]MembershipTier, error)
}

// ===========================
// 錯誤定義
// ===========================

const (
	ErrCodePackageNotFound shared.ErrorCode = "PACKAGE_NOT_FOUND"
	ErrCodeInvalidPackage  shared.ErrorCode = "PACKAGE_INVALID"
	ErrCodeInvalidTier     shared.ErrorCode = "TIER_INVALID"
)

var (
	ErrPackageNotFound = shared.NewDomainError(ErrCodePackageNotFound, shared.KindNotFound, "套票不存在")
	ErrInvalidPackage  = shared.NewDomainError(ErrCodeInvalidPackage, shared.KindValidation, "套票設定無效")
	ErrInvalidTier     = shared.NewDomainError(ErrCodeInvalidTier, shared.KindValidation, "會員等級設定無效")
)

// Validate 檢查套票設定
func (p Package) Validate() error {
	if p.ID == "" {
		return ErrInvalidPackage.WithContext("reason", "empty id")
	}
	if p.DurationAmount < 0 {
		return ErrInvalidPackage.WithContext("package_id", string(p.ID), "reason", "negative duration")
	}
	if p.DurationAmount > duration.MaxAmount(p.DurationUnit) {
		return ErrInvalidPackage.WithContext("package_id", string(p.ID), "reason", "duration too long")
	}
	if p.ListPrice.IsNegative() {
		return ErrInvalidPackage.WithContext("package_id", string(p.ID), "reason", "negative list price")
	}
	return nil
}

// Validate 檢查等級設定
func (t MembershipTier) Validate() error {
	if t.ID == "" {
		return ErrInvalidTier.WithContext("reason", "empty id")
	}
	if t.Criteria.MinSpend.IsNegative() {
		return ErrInvalidTier.WithContext("tier_id", string(t.ID), "reason", "negative min spend")
	}
	return nil
}
