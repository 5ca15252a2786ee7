// Package ledger 套票登記與付款帳本
//
// 所有寫入都在單一事務內完成：防護條件以事務內讀到的版本判斷，
// 寫入時以 compare-and-set 確認版本未被其他請求變更。
// 版本衝突時事務回滾，並依已提交的最新狀態重新分類錯誤（不重試寫入）。
package ledger

import (
	"context"
	"errors"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/metrics"
)

// 指標與日誌使用的操作名稱
const (
	OpCreateRegistration = "create_registration"
	OpUpdateRegistration = "update_registration"
	OpDeleteRegistration = "delete_registration"
	OpCreatePayment      = "create_payment"
	OpConfirmPayment     = "confirm_payment"
	OpCancelPayment      = "cancel_payment"
)

// Service 登記與付款 Use Cases
type Service struct {
	txManager  shared.TransactionManager
	memberRepo member.MemberRepository
	regRepo    ledger.RegistrationRepository
	payRepo    ledger.PaymentRepository
	packages   catalog.PackageCatalog
	publisher  shared.EventPublisher
	clock      shared.Clock
	log        logger.Logger
}

// NewService 建立帳本服務
func NewService(
	txManager shared.TransactionManager,
	memberRepo member.MemberRepository,
	regRepo ledger.RegistrationRepository,
	payRepo ledger.PaymentRepository,
	packages catalog.PackageCatalog,
	publisher shared.EventPublisher,
	clock shared.Clock,
	log logger.Logger,
) *Service {
	return &Service{
		txManager:  txManager,
		memberRepo: memberRepo,
		regRepo:    regRepo,
		payRepo:    payRepo,
		packages:   packages,
		publisher:  publisher,
		clock:      clock,
		log:        log,
	}
}

// reclassify 版本衝突時以已提交的狀態重新執行防護條件
//
// guard 回傳 nil 表示衝突來自不影響結果的並行寫入，仍回傳 ErrStaleRecord（CONFLICT）
func (s *Service) reclassify(op string, err error, guard func() error) error {
	if !errors.Is(err, shared.ErrStaleRecord) {
		return err
	}
	metrics.LedgerConflicts.WithLabelValues(op).Inc()

	guardErr := guard()
	s.log.WithError(err).Warn("ledger write lost a version race", map[string]interface{}{
		"operation":      op,
		"reclassified":   guardErr != nil,
		"resulting_code": shared.Describe(firstNonNil(guardErr, err)).Code,
	})
	if guardErr != nil {
		return guardErr
	}
	return err
}

// publishAfterCommit 事件在提交後發布；失敗只記錄
func (s *Service) publishAfterCommit(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, events); err != nil {
		s.log.WithError(err).Error("failed to publish ledger events", map[string]interface{}{
			"event_count": len(events),
		})
	}
}

// findLinkedPayment 讀取登記目前連結的付款；連結的付款不存在時視為沒有連結
func (s *Service) findLinkedPayment(tx shared.TransactionContext, reg *ledger.Registration) (*ledger.Payment, error) {
	if reg.PaymentID() == nil {
		return nil, nil
	}
	payment, err := s.payRepo.FindByID(tx, *reg.PaymentID())
	if errors.Is(err, ledger.ErrPaymentNotFound) {
		s.log.Warn("registration links a missing payment", map[string]interface{}{
			"registration_id": reg.ID().String(),
			"payment_id":      reg.PaymentID().String(),
		})
		return nil, nil
	}
	return payment, err
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
