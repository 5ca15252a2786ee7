package ledger

import (
	"context"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/metrics"
)

// 刪除登記時一併取消處理中付款的稽核備註
const noteRegistrationDeleted = "registration deleted"

// ===========================
// CreateRegistration
// ===========================

// CreateRegistrationCommand 建立登記指令
type CreateRegistrationCommand struct {
	MemberID  string
	PackageID string
	BranchID  string
}

// CreateRegistration 會員登記套票
//
// 錯誤處理：
// - ID 格式錯誤 → VALIDATION
// - 會員不存在 → member.ErrMemberNotFound
// - 套票不存在 → catalog.ErrPackageNotFound
// - 已登記相同套票 → ledger.ErrDuplicateRegistration（事務內檢查，唯一索引兜底）
func (s *Service) CreateRegistration(ctx context.Context, cmd CreateRegistrationCommand) (_ *RegistrationDTO, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedgerOperation(OpCreateRegistration, start, err) }()

	memberID, err := member.MemberIDFromString(cmd.MemberID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.packages.FindPackage(ctx, catalog.PackageID(cmd.PackageID))
	if err != nil {
		return nil, err
	}

	reg, err := ledger.NewRegistration(memberID, pkg, cmd.BranchID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		if _, err := s.memberRepo.FindByID(tx, memberID); err != nil {
			return err
		}
		existing, err := s.regRepo.FindByMemberAndPackage(tx, memberID, pkg.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ledger.ErrDuplicateRegistration.WithContext(
				"member_id", memberID.String(),
				"package_id", string(pkg.ID),
			)
		}
		return s.regRepo.Save(tx, reg)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("registration created", map[string]interface{}{
		"registration_id": reg.ID().String(),
		"member_id":       memberID.String(),
		"package_id":      string(pkg.ID),
		"expires_at":      reg.ExpiresAt(),
	})
	return toRegistrationDTO(reg), nil
}

// ===========================
// UpdateRegistration
// ===========================

// UpdateRegistrationCommand 更新登記指令，nil 欄位表示不變更
type UpdateRegistrationCommand struct {
	RegistrationID string
	BranchID       *string
	PackageID      *string
	ExpiresAt      *time.Time
}

func (c UpdateRegistrationCommand) patch() ledger.RegistrationPatch {
	patch := ledger.RegistrationPatch{
		BranchID:  c.BranchID,
		ExpiresAt: c.ExpiresAt,
	}
	if c.PackageID != nil {
		id := catalog.PackageID(*c.PackageID)
		patch.PackageID = &id
	}
	return patch
}

// UpdateRegistration 更新未付款的登記
//
// 業務規則：
// 1. 已付款 → ErrRegistrationLocked（不論更新內容）
// 2. 更換套票不重算到期日；新套票必須存在且會員尚未登記
// 3. 有處理中的付款時不可更換套票（付款金額已依原套票定價）→ ErrPaymentPending
func (s *Service) UpdateRegistration(ctx context.Context, cmd UpdateRegistrationCommand) (_ *RegistrationDTO, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedgerOperation(OpUpdateRegistration, start, err) }()

	regID, err := ledger.RegistrationIDFromString(cmd.RegistrationID)
	if err != nil {
		return nil, err
	}
	patch := cmd.patch()
	now := s.clock.Now()

	var reg *ledger.Registration
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		reg, err = s.regRepo.FindByID(tx, regID)
		if err != nil {
			return err
		}
		if err := reg.EnsureMutable(); err != nil {
			return err
		}
		if patch.PackageID != nil && *patch.PackageID != reg.PackageID() {
			if err := s.checkPackageChange(ctx, tx, reg, *patch.PackageID); err != nil {
				return err
			}
		}
		if err := reg.ApplyPatch(patch, now); err != nil {
			return err
		}
		return s.regRepo.Update(tx, reg)
	})
	if err != nil {
		return nil, s.reclassify(OpUpdateRegistration, err, func() error {
			return s.registrationGuard(regID)
		})
	}

	s.log.Info("registration updated", map[string]interface{}{
		"registration_id": regID.String(),
		"version":         reg.Version(),
	})
	return toRegistrationDTO(reg), nil
}

func (s *Service) checkPackageChange(ctx context.Context, tx shared.TransactionContext, reg *ledger.Registration, packageID catalog.PackageID) error {
	if _, err := s.packages.FindPackage(ctx, packageID); err != nil {
		return err
	}
	linked, err := s.findLinkedPayment(tx, reg)
	if err != nil {
		return err
	}
	if linked != nil && linked.IsPending() {
		return ledger.ErrPaymentPending.WithContext(
			"registration_id", reg.ID().String(),
			"payment_id", linked.ID().String(),
		)
	}
	existing, err := s.regRepo.FindByMemberAndPackage(tx, reg.MemberID(), packageID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.ID().Equals(reg.ID()) {
		return ledger.ErrDuplicateRegistration.WithContext(
			"member_id", reg.MemberID().String(),
			"package_id", string(packageID),
		)
	}
	return nil
}

// ===========================
// DeleteRegistration
// ===========================

// DeleteRegistration 刪除未付款的登記
//
// 連結中處理中的付款在同一事務內改為 FAILED，避免之後對不存在的登記確認付款
func (s *Service) DeleteRegistration(ctx context.Context, registrationID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedgerOperation(OpDeleteRegistration, start, err) }()

	regID, err := ledger.RegistrationIDFromString(registrationID)
	if err != nil {
		return err
	}
	now := s.clock.Now()

	var cancelled *ledger.Payment
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		reg, err := s.regRepo.FindByID(tx, regID)
		if err != nil {
			return err
		}
		if err := reg.EnsureMutable(); err != nil {
			return err
		}

		linked, err := s.findLinkedPayment(tx, reg)
		if err != nil {
			return err
		}
		if linked != nil && linked.IsPending() {
			if err := linked.Fail(noteRegistrationDeleted, now); err != nil {
				return err
			}
			if err := s.payRepo.Update(tx, linked); err != nil {
				return err
			}
			cancelled = linked
		}

		return s.regRepo.Delete(tx, reg)
	})
	if err != nil {
		return s.reclassify(OpDeleteRegistration, err, func() error {
			return s.registrationGuard(regID)
		})
	}

	fields := map[string]interface{}{"registration_id": regID.String()}
	if cancelled != nil {
		fields["cancelled_payment_id"] = cancelled.ID().String()
	}
	s.log.Info("registration deleted", fields)
	return nil
}

// registrationGuard 以已提交的狀態檢查登記是否仍可修改
func (s *Service) registrationGuard(regID ledger.RegistrationID) error {
	reg, err := s.regRepo.FindByID(nil, regID)
	if err != nil {
		return err
	}
	return reg.EnsureMutable()
}

// ===========================
// Queries
// ===========================

// GetRegistration 查詢單筆登記
func (s *Service) GetRegistration(ctx context.Context, registrationID string) (*RegistrationDTO, error) {
	regID, err := ledger.RegistrationIDFromString(registrationID)
	if err != nil {
		return nil, err
	}
	reg, err := s.regRepo.FindByID(nil, regID)
	if err != nil {
		return nil, err
	}
	return toRegistrationDTO(reg), nil
}

// ListMemberRegistrations 會員全部登記（依建立時間）
func (s *Service) ListMemberRegistrations(ctx context.Context, memberID string) ([]*RegistrationDTO, error) {
	id, err := member.MemberIDFromString(memberID)
	if err != nil {
		return nil, err
	}
	regs, err := s.regRepo.ListByMember(nil, id)
	if err != nil {
		return nil, err
	}

	result := make([]*RegistrationDTO, 0, len(regs))
	for _, r := range regs {
		result = append(result, toRegistrationDTO(r))
	}
	return result, nil
}
