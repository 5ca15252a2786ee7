package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/notification"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"go.uber.org/multierr"
)

// DefaultScanBatchSize 每頁讀取的到期登記數
const DefaultScanBatchSize = 500

// ScanResult 到期掃描結果
type ScanResult struct {
	Scanned  int // 已到期的登記數
	Issued   int // 本次新建的通知
	Existing int // 已有通知（包含掃描期間被並行建立者）
	Failed   int
	Failures error
}

// ExpiryScanner 套票到期通知
//
// 對每一筆到期日早於 now、且尚未有 PACKAGE_EXPIRED 通知的登記呼叫 IssueOnce，
// 觸發實體為登記 ID。去重由 IssueOnce 保證，重複執行或與其他掃描並行都不會重複通知。
type ExpiryScanner struct {
	notifications *Service
	regRepo       ledger.RegistrationRepository
	clock         shared.Clock
	batchSize     int
	log           logger.Logger
}

func NewExpiryScanner(
	notifications *Service,
	regRepo ledger.RegistrationRepository,
	clock shared.Clock,
	batchSize int,
	log logger.Logger,
) *ExpiryScanner {
	if batchSize <= 0 {
		batchSize = DefaultScanBatchSize
	}
	return &ExpiryScanner{
		notifications: notifications,
		regRepo:       regRepo,
		clock:         clock,
		batchSize:     batchSize,
		log:           log,
	}
}

// ScanExpired 掃描到期的登記並發送通知
//
// 單筆失敗不中止掃描；ctx 取消時回傳部分結果與 ctx 錯誤
func (s *ExpiryScanner) ScanExpired(ctx context.Context) (*ScanResult, error) {
	now := s.clock.Now()
	result := &ScanResult{}

	var cursor *ledger.ExpiryCursor
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		page, err := s.regRepo.ListExpiredBefore(nil, now, cursor, s.batchSize)
		if err != nil {
			return result, err
		}
		if len(page) == 0 {
			break
		}

		result.Scanned += len(page)
		if err := s.scanBatch(ctx, page, result); err != nil {
			return result, err
		}
		if len(page) < s.batchSize {
			break
		}
		cursor = ledger.ExpiryCursorAfter(page[len(page)-1])
	}

	s.log.Info("expiry scan finished", map[string]interface{}{
		"scanned":  result.Scanned,
		"issued":   result.Issued,
		"existing": result.Existing,
		"failed":   result.Failed,
	})
	return result, nil
}

func (s *ExpiryScanner) scanBatch(ctx context.Context, batch []*ledger.Registration, result *ScanResult) error {
	ids := make([]string, 0, len(batch))
	for _, r := range batch {
		ids = append(ids, r.ID().String())
	}
	notified, err := s.notifications.repo.ExistingTriggers(nil, notification.KindPackageExpired, ids)
	if err != nil {
		return err
	}

	for _, r := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if notified[r.ID().String()] {
			result.Existing++
			continue
		}

		_, created, err := s.notifications.IssueOnce(ctx, expiredCommand(r))
		switch {
		case err != nil:
			result.Failed++
			result.Failures = multierr.Append(result.Failures, fmt.Errorf("registration %s: %w", r.ID().String(), err))
			s.log.WithError(err).Warn("failed to issue expiry notification", map[string]interface{}{
				"registration_id": r.ID().String(),
			})
		case created:
			result.Issued++
		default:
			result.Existing++
		}
	}
	return nil
}

func expiredCommand(r *ledger.Registration) IssueCommand {
	return IssueCommand{
		RecipientID:     r.MemberID().String(),
		Kind:            notification.KindPackageExpired,
		TriggerEntityID: r.ID().String(),
		Title:           "套票已到期",
		Body:            fmt.Sprintf("您的套票 %s 已於 %s 到期", r.PackageID(), r.ExpiresAt().Format(time.DateOnly)),
		Payload: notification.PackageExpiredPayload{
			RegistrationID: r.ID().String(),
			PackageID:      string(r.PackageID()),
			ExpiresAt:      r.ExpiresAt(),
		},
	}
}
