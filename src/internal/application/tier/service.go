// Package tier 會員等級重算
//
// Recompute 每次都從歷史資料重新推導（不做增量），因此可重複執行；
// 讀取到寫入之間不持有鎖，與付款確認並行時以最後寫入為準，
// 由週期性的 RecomputeAll 收斂。
package tier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/domain/tier"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// RecomputeResult 單一會員重算結果（Output DTO）
type RecomputeResult struct {
	MemberID          string
	TierID            string // 無等級時為空
	TierChanged       bool
	TierAssignedAt    *time.Time
	AccumulatedSpend  decimal.Decimal
	ContinuousMonths  int
	CompletedSessions int
}

// RecomputeAllResult 批次重算結果
//
// Results 列出成功重算的會員（與 ListIDs 順序相同）；
// Failures 以 multierr 合併每位會員的錯誤，nil 表示全部成功
type RecomputeAllResult struct {
	Members  int
	Changed  int
	Failed   int
	Results  []*RecomputeResult
	Failures error
}

// Service 會員等級 Use Cases
type Service struct {
	txManager  shared.TransactionManager
	memberRepo member.MemberRepository
	regRepo    ledger.RegistrationRepository
	packages   catalog.PackageCatalog
	tiers      catalog.TierCatalog
	attendance tier.AttendanceHistory
	clock      shared.Clock
	log        logger.Logger
}

func NewService(
	txManager shared.TransactionManager,
	memberRepo member.MemberRepository,
	regRepo ledger.RegistrationRepository,
	packages catalog.PackageCatalog,
	tiers catalog.TierCatalog,
	attendance tier.AttendanceHistory,
	clock shared.Clock,
	log logger.Logger,
) *Service {
	return &Service{
		txManager:  txManager,
		memberRepo: memberRepo,
		regRepo:    regRepo,
		packages:   packages,
		tiers:      tiers,
		attendance: attendance,
		clock:      clock,
		log:        log,
	}
}

// Recompute 重算單一會員的等級
//
// 執行流程：
// 1. 累計消費 = 所有 PAID 登記的 paidAmount 總和（缺值時以套票定價代替）
// 2. 連續月數 = 入會至今的完整日曆月數
// 3. 出席次數取自 AttendanceHistory
// 4. 依 tier.Select 選出最高符合等級
// 5. 等級不同才更新等級與 tierAssignedAt；累計消費不同才寫入
//
// 沒有任何等級符合時保留原等級並記錄警告，不視為錯誤。
func (s *Service) Recompute(ctx context.Context, memberID string) (*RecomputeResult, error) {
	id, err := member.MemberIDFromString(memberID)
	if err != nil {
		return nil, err
	}
	return s.recompute(ctx, id)
}

func (s *Service) recompute(ctx context.Context, id member.MemberID) (*RecomputeResult, error) {
	m, err := s.memberRepo.FindByID(nil, id)
	if err != nil {
		return nil, err
	}

	paid, err := s.regRepo.ListPaidByMember(nil, id)
	if err != nil {
		return nil, err
	}
	spend, err := s.accumulatedSpend(ctx, id, paid)
	if err != nil {
		return nil, err
	}
	sessions, err := s.attendance.CompletedSessions(ctx, id)
	if err != nil {
		return nil, err
	}
	tiers, err := s.tiers.ListTiers(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	standing := tier.Standing{
		AccumulatedSpend:  spend,
		ContinuousMonths:  m.ContinuousMonths(now),
		CompletedSessions: sessions,
	}

	spendChanged, err := m.UpdateAccumulatedSpend(spend, now)
	if err != nil {
		return nil, err
	}

	tierChanged := false
	if selected, ok := tier.Select(tiers, standing); ok {
		tierChanged = m.AssignTier(selected.ID, now)
	} else {
		metrics.TierNoQualifyingTier.Inc()
		s.log.Warn("no active tier qualifies, keeping current tier", map[string]interface{}{
			"member_id":          id.String(),
			"current_tier":       string(m.TierID()),
			"accumulated_spend":  spend.String(),
			"continuous_months":  standing.ContinuousMonths,
			"completed_sessions": sessions,
		})
	}

	if spendChanged || tierChanged {
		err := s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
			return s.memberRepo.UpdateStanding(tx, m)
		})
		if err != nil {
			return nil, err
		}
	}

	if tierChanged {
		metrics.TierChanges.WithLabelValues(string(m.TierID())).Inc()
		s.log.Info("member tier changed", map[string]interface{}{
			"member_id":         id.String(),
			"tier_id":           string(m.TierID()),
			"accumulated_spend": spend.String(),
		})
	}

	return &RecomputeResult{
		MemberID:          id.String(),
		TierID:            string(m.TierID()),
		TierChanged:       tierChanged,
		TierAssignedAt:    m.TierAssignedAt(),
		AccumulatedSpend:  spend,
		ContinuousMonths:  standing.ContinuousMonths,
		CompletedSessions: sessions,
	}, nil
}

// accumulatedSpend 已付款登記的實付金額總和
//
// 舊資料可能沒有 paidAmount，改用套票定價；套票已不在目錄中時以 0 計並記錄警告
func (s *Service) accumulatedSpend(ctx context.Context, id member.MemberID, paid []*ledger.Registration) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range paid {
		if r.PaidAmount() != nil {
			total = total.Add(*r.PaidAmount())
			continue
		}

		pkg, err := s.packages.FindPackage(ctx, r.PackageID())
		if errors.Is(err, catalog.ErrPackageNotFound) {
			s.log.Warn("paid registration references unknown package, counting as zero", map[string]interface{}{
				"member_id":       id.String(),
				"registration_id": r.ID().String(),
				"package_id":      string(r.PackageID()),
			})
			continue
		}
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(pkg.ListPrice)
	}
	return total, nil
}

// RecomputeAll 重算全部會員
//
// 單一會員失敗不中止批次；ctx 取消時回傳已完成的部分結果與 ctx 錯誤。
func (s *Service) RecomputeAll(ctx context.Context) (*RecomputeAllResult, error) {
	ids, err := s.memberRepo.ListIDs(nil)
	if err != nil {
		return nil, err
	}

	result := &RecomputeAllResult{Results: make([]*RecomputeResult, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Members++
		r, err := s.recompute(ctx, id)
		if err != nil {
			result.Failed++
			metrics.TierRecomputeFailures.Inc()
			result.Failures = multierr.Append(result.Failures, fmt.Errorf("member %s: %w", id.String(), err))
			continue
		}
		result.Results = append(result.Results, r)
		if r.TierChanged {
			result.Changed++
		}
	}

	s.log.Info("tier recompute finished", map[string]interface{}{
		"members": result.Members,
		"changed": result.Changed,
		"failed":  result.Failed,
	})
	return result, nil
}

// RecordAttendance 記錄一次完成的出席，回傳累計次數
//
// 以 SQL 原子遞增，不會與 Recompute 的寫入互相覆蓋
func (s *Service) RecordAttendance(ctx context.Context, memberID string) (int, error) {
	id, err := member.MemberIDFromString(memberID)
	if err != nil {
		return 0, err
	}

	var sessions int
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		sessions, err = s.memberRepo.IncrementCompletedSessions(tx, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	return sessions, nil
}
