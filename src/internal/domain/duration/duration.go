// Package duration 計算套票到期時間
//
// 純函數，無狀態、無 I/O。
//
// 業務規則：
//   - minute / day 為固定長度（day = 24 小時）
//   - month / year 以日曆欄位相加，溢位依 time.Date 正規化
//   - 未知或空白單位視為 day
//   - 負數數量 → VALIDATION
//   - 數量超過 MaxAmount(unit)（約 100 年）→ VALIDATION
//
// 日曆溢位範例：
//
//	2024-01-31 + 1 month = 2024-03-02
//	2024-02-29 + 1 year  = 2025-03-01
package duration

import (
	"strings"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
)

// Unit 時間單位
type Unit string

const (
	Minute Unit = "minute"
	Day    Unit = "day"
	Month  Unit = "month"
	Year   Unit = "year"
)

const (
	ErrCodeNegativeAmount shared.ErrorCode = "DURATION_NEGATIVE"
	ErrCodeAmountTooLarge shared.ErrorCode = "DURATION_TOO_LONG"
)

var (
	// ErrNegativeAmount 期間數量不可為負
	ErrNegativeAmount = shared.NewDomainError(ErrCodeNegativeAmount, shared.KindValidation, "期間數量不可為負數")
	// ErrAmountTooLarge 期間超過上限
	ErrAmountTooLarge = shared.NewDomainError(ErrCodeAmountTooLarge, shared.KindValidation, "期間數量超過上限")
)

// MaxYears 單一期間的上限（年）
const MaxYears = 100

// MaxAmount 回傳 unit 可接受的最大數量，皆約等於 MaxYears 年。
// minute / day 的上限遠低於 time.Duration 的 int64 範圍。
func MaxAmount(unit Unit) int {
	switch unit {
	case Minute:
		return MaxYears * 366 * 24 * 60
	case Month:
		return MaxYears * 12
	case Year:
		return MaxYears
	default:
		return MaxYears * 366
	}
}

// ParseUnit 解析時間單位（不分大小寫，接受複數形式），無法辨識時回傳 Day
func ParseUnit(s string) Unit {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "minute":
		return Minute
	case "month":
		return Month
	case "year":
		return Year
	default:
		return Day
	}
}

// Add 計算 start 加上 amount 個 unit 後的時間
func Add(start time.Time, amount int, unit Unit) (time.Time, error) {
	if amount < 0 {
		return time.Time{}, ErrNegativeAmount.WithContext("amount", amount, "unit", string(unit))
	}
	if limit := MaxAmount(unit); amount > limit {
		return time.Time{}, ErrAmountTooLarge.WithContext("amount", amount, "unit", string(unit), "max", limit)
	}

	switch unit {
	case Minute:
		return start.Add(time.Duration(amount) * time.Minute), nil
	case Month:
		return start.AddDate(0, amount, 0), nil
	case Year:
		return start.AddDate(amount, 0, 0), nil
	default:
		return start.Add(time.Duration(amount) * 24 * time.Hour), nil
	}
}
