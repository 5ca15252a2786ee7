package member

import (
	"context"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
)

// ===========================
// EnrollMember Use Case
// ===========================

// EnrollMemberCommand 入會指令（Input DTO）
type EnrollMemberCommand struct {
	DisplayName string
	PhoneNumber string    // 可為空；提供時為台灣手機號碼
	JoinedAt    time.Time // 連續會籍起點；零值表示今天入會
}

// EnrollMemberResult 入會結果（Output DTO）
type EnrollMemberResult struct {
	MemberID string
	JoinedAt time.Time
}

// EnrollMemberUseCase 會員入會
//
// 業務規則：
// 1. DisplayName 不能為空
// 2. PhoneNumber 不能重複（一個手機號碼只能屬於一位會員）
// 3. 新會員沒有等級、累計消費 0，等級由 Tier Evaluator 重算後指派
type EnrollMemberUseCase struct {
	memberRepo member.MemberRepository
	txManager  shared.TransactionManager
	clock      shared.Clock
}

func NewEnrollMemberUseCase(
	memberRepo member.MemberRepository,
	txManager shared.TransactionManager,
	clock shared.Clock,
) *EnrollMemberUseCase {
	return &EnrollMemberUseCase{
		memberRepo: memberRepo,
		txManager:  txManager,
		clock:      clock,
	}
}

// Execute 執行入會
//
// 錯誤處理：
// - 手機格式錯誤 → member.ErrInvalidPhoneNumberFormat
// - 手機已使用 → member.ErrPhoneNumberAlreadyBound（事務內檢查，唯一索引兜底）
func (uc *EnrollMemberUseCase) Execute(ctx context.Context, cmd EnrollMemberCommand) (*EnrollMemberResult, error) {
	phoneNumber, err := member.OptionalPhoneNumber(cmd.PhoneNumber)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	newMember, err := member.NewMember(cmd.DisplayName, phoneNumber, cmd.JoinedAt, now)
	if err != nil {
		return nil, err
	}

	err = uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		if !phoneNumber.IsZero() {
			exists, err := uc.memberRepo.ExistsByPhoneNumber(tx, phoneNumber)
			if err != nil {
				return err
			}
			if exists {
				return member.ErrPhoneNumberAlreadyBound.WithContext("phone_number", phoneNumber.String())
			}
		}
		return uc.memberRepo.Save(tx, newMember)
	})
	if err != nil {
		return nil, err
	}

	return &EnrollMemberResult{
		MemberID: newMember.MemberID().String(),
		JoinedAt: newMember.JoinedAt(),
	}, nil
}
