// Package tier 會員等級評估
//
// 選擇規則（greedy）：
// 1. 只考慮啟用中的等級
// 2. 依 MinSpend 由高到低排序，相同時 Rank 高者優先
// 3. 取第一個「所有已設定門檻都滿足」的等級
//
// 因為是由高往低找，會員可以直接從無等級跳到最高等級，
// 中間等級不需要逐級經過。
package tier

import (
	"context"
	"sort"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/shopspring/decimal"
)

// Standing 會員在評估當下的指標
type Standing struct {
	AccumulatedSpend  decimal.Decimal
	ContinuousMonths  int
	CompletedSessions int
}

// Satisfies 指標是否滿足等級的全部門檻
func (s Standing) Satisfies(criteria catalog.TierCriteria) bool {
	if s.AccumulatedSpend.LessThan(criteria.MinSpend) {
		return false
	}
	if criteria.MinContinuousMonths != nil && s.ContinuousMonths < *criteria.MinContinuousMonths {
		return false
	}
	if criteria.MinCompletedSessions != nil && s.CompletedSessions < *criteria.MinCompletedSessions {
		return false
	}
	return true
}

// Select 從等級清單中選出符合的最高等級，沒有任何等級符合時回傳 false
func Select(tiers []catalog.MembershipTier, standing Standing) (catalog.MembershipTier, bool) {
	for _, t := range Ordered(tiers) {
		if standing.Satisfies(t.Criteria) {
			return t, true
		}
	}
	return catalog.MembershipTier{}, false
}

// Ordered 啟用中的等級，依評估順序排列（不修改輸入）
func Ordered(tiers []catalog.MembershipTier) []catalog.MembershipTier {
	active := make([]catalog.MembershipTier, 0, len(tiers))
	for _, t := range tiers {
		if t.Active {
			active = append(active, t)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if c := active[i].Criteria.MinSpend.Cmp(active[j].Criteria.MinSpend); c != 0 {
			return c > 0
		}
		return active[i].Rank > active[j].Rank
	})
	return active
}

// AttendanceHistory 出席紀錄來源（外部系統記錄出席）
type AttendanceHistory interface {
	CompletedSessions(ctx context.Context, memberID member.MemberID) (int, error)
}
