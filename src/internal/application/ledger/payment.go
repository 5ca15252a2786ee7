package ledger

import (
	"context"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/metrics"
)

// ===========================
// CreatePayment
// ===========================

// CreatePaymentCommand 建立付款指令
type CreatePaymentCommand struct {
	MemberID       string
	RegistrationID string
	Method         string
}

// CreatePayment 為登記建立處理中的付款，金額為套票定價
//
// 錯誤處理：
// - 登記不存在或屬於其他會員 → ledger.ErrRegistrationNotFound
// - 登記已付款 → ledger.ErrAlreadyPaid
// - 連結付款已鎖定但登記未付款 → ledger.ErrPaymentLocked
// - 已有處理中的付款 → ledger.ErrPaymentPending
//
// 付款寫入與登記連結在同一事務提交；登記以版本 compare-and-set 寫入，
// 兩個並行請求只有一個能連結成功。
func (s *Service) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (_ *PaymentDTO, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedgerOperation(OpCreatePayment, start, err) }()

	memberID, err := member.MemberIDFromString(cmd.MemberID)
	if err != nil {
		return nil, err
	}
	regID, err := ledger.RegistrationIDFromString(cmd.RegistrationID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var payment *ledger.Payment
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		reg, err := s.findMemberRegistration(tx, memberID, regID)
		if err != nil {
			return err
		}

		linked, err := s.findLinkedPayment(tx, reg)
		if err != nil {
			return err
		}
		if err := reg.CheckPayable(linked); err != nil {
			return err
		}

		pkg, err := s.packages.FindPackage(ctx, reg.PackageID())
		if err != nil {
			return err
		}

		payment, err = ledger.NewPayment(memberID, regID, pkg.ListPrice, ledger.PaymentMethod(cmd.Method), now)
		if err != nil {
			return err
		}
		if err := s.payRepo.Save(tx, payment); err != nil {
			return err
		}

		reg.LinkPayment(payment.ID(), now)
		return s.regRepo.Update(tx, reg)
	})
	if err != nil {
		return nil, s.reclassify(OpCreatePayment, err, func() error {
			reg, err := s.findMemberRegistration(nil, memberID, regID)
			if err != nil {
				return err
			}
			linked, err := s.findLinkedPayment(nil, reg)
			if err != nil {
				return err
			}
			return reg.CheckPayable(linked)
		})
	}

	s.log.Info("payment created", map[string]interface{}{
		"payment_id":      payment.ID().String(),
		"registration_id": regID.String(),
		"amount":          payment.Amount().String(),
	})
	return toPaymentDTO(payment), nil
}

// findMemberRegistration 登記屬於其他會員時視同不存在
func (s *Service) findMemberRegistration(tx shared.TransactionContext, memberID member.MemberID, regID ledger.RegistrationID) (*ledger.Registration, error) {
	reg, err := s.regRepo.FindByID(tx, regID)
	if err != nil {
		return nil, err
	}
	if !reg.BelongsTo(memberID) {
		return nil, ledger.ErrRegistrationNotFound.WithContext(
			"registration_id", regID.String(),
			"member_id", memberID.String(),
		)
	}
	return reg, nil
}

// ===========================
// ConfirmPayment
// ===========================

// ConfirmPayment 確認付款
//
// 單一事務內：
// 1. payment.status = SUCCESS、locked = true
// 2. registration.paymentStatus = PAID、paidAmount = payment.amount
//
// 提交後發布 PaymentConfirmed 事件（通知失敗不影響付款結果）。
// 重複確認 → ledger.ErrAlreadyConfirmed，登記只會被標記一次。
func (s *Service) ConfirmPayment(ctx context.Context, paymentID string) (_ *PaymentDTO, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedgerOperation(OpConfirmPayment, start, err) }()

	payID, err := ledger.PaymentIDFromString(paymentID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var payment *ledger.Payment
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		payment, err = s.payRepo.FindByID(tx, payID)
		if err != nil {
			return err
		}
		if err := payment.CheckConfirmable(); err != nil {
			return err
		}

		var reg *ledger.Registration
		if payment.RegistrationID() != nil {
			reg, err = s.regRepo.FindByID(tx, *payment.RegistrationID())
			if err != nil {
				return err
			}
			if err := reg.CheckMarkPaid(payID); err != nil {
				return err
			}
		}

		if err := payment.Confirm(now); err != nil {
			return err
		}
		if err := s.payRepo.Update(tx, payment); err != nil {
			return err
		}
		if reg == nil {
			return nil
		}
		if err := reg.MarkPaid(payID, payment.Amount(), now); err != nil {
			return err
		}
		return s.regRepo.Update(tx, reg)
	})
	if err != nil {
		return nil, s.reclassify(OpConfirmPayment, err, func() error {
			return s.confirmGuard(payID)
		})
	}

	s.log.Info("payment confirmed", map[string]interface{}{
		"payment_id": payID.String(),
		"member_id":  payment.MemberID().String(),
		"amount":     payment.Amount().String(),
	})
	s.publishAfterCommit(ctx, payment.PullEvents())
	return toPaymentDTO(payment), nil
}

func (s *Service) confirmGuard(payID ledger.PaymentID) error {
	payment, err := s.payRepo.FindByID(nil, payID)
	if err != nil {
		return err
	}
	if err := payment.CheckConfirmable(); err != nil {
		return err
	}
	if payment.RegistrationID() == nil {
		return nil
	}
	reg, err := s.regRepo.FindByID(nil, *payment.RegistrationID())
	if err != nil {
		return err
	}
	return reg.CheckMarkPaid(payID)
}

// ===========================
// CancelPayment
// ===========================

// CancelPayment 將處理中的付款標記為 FAILED，登記不變
//
// 錯誤處理：
// - 已成功或已鎖定 → ledger.ErrPaymentLocked
// - 已失敗 → ledger.ErrPaymentFailed
func (s *Service) CancelPayment(ctx context.Context, paymentID, reason string) (_ *PaymentDTO, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedgerOperation(OpCancelPayment, start, err) }()

	payID, err := ledger.PaymentIDFromString(paymentID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var payment *ledger.Payment
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		payment, err = s.payRepo.FindByID(tx, payID)
		if err != nil {
			return err
		}
		if err := payment.Fail(reason, now); err != nil {
			return err
		}
		return s.payRepo.Update(tx, payment)
	})
	if err != nil {
		return nil, s.reclassify(OpCancelPayment, err, func() error {
			payment, err := s.payRepo.FindByID(nil, payID)
			if err != nil {
				return err
			}
			return payment.CheckCancellable()
		})
	}

	s.log.Info("payment cancelled", map[string]interface{}{
		"payment_id": payID.String(),
		"reason":     reason,
	})
	return toPaymentDTO(payment), nil
}

// GetPayment 查詢單筆付款
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*PaymentDTO, error) {
	payID, err := ledger.PaymentIDFromString(paymentID)
	if err != nil {
		return nil, err
	}
	payment, err := s.payRepo.FindByID(nil, payID)
	if err != nil {
		return nil, err
	}
	return toPaymentDTO(payment), nil
}

// ListRegistrationPayments 登記的付款紀錄（含被取代的 FAILED 付款）
func (s *Service) ListRegistrationPayments(ctx context.Context, registrationID string) ([]*PaymentDTO, error) {
	regID, err := ledger.RegistrationIDFromString(registrationID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payRepo.ListByRegistration(nil, regID)
	if err != nil {
		return nil, err
	}

	result := make([]*PaymentDTO, 0, len(payments))
	for _, p := range payments {
		result = append(result, toPaymentDTO(p))
	}
	return result, nil
}
