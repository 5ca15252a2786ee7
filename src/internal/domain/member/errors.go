package member

import "github.com/jackyeh168/gym_crm/src/internal/domain/shared"

// ===========================
// 錯誤代碼定義
// ===========================

const (
	ErrCodeInvalidPhoneNumberFormat shared.ErrorCode = "INVALID_PHONE_NUMBER_FORMAT"
	ErrCodePhoneNumberAlreadyBound  shared.ErrorCode = "PHONE_NUMBER_ALREADY_BOUND"
	ErrCodeMemberNotFound           shared.ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeInvalidMemberID          shared.ErrorCode = "INVALID_MEMBER_ID"
	ErrCodeInvalidDisplayName       shared.ErrorCode = "INVALID_DISPLAY_NAME"
	ErrCodeNegativeSpend            shared.ErrorCode = "MEMBER_SPEND_NEGATIVE"
)

var (
	// ErrInvalidPhoneNumberFormat 手機號碼格式無效
	//
	// 觸發條件：
	// - 正規化後不是 09 開頭的 10 位數字
	ErrInvalidPhoneNumberFormat = shared.NewDomainError(
		ErrCodeInvalidPhoneNumberFormat, shared.KindValidation,
		"手機號碼格式無效（必須是10位數字，且以09開頭）",
	)

	// ErrPhoneNumberAlreadyBound 手機號碼已被其他會員使用
	ErrPhoneNumberAlreadyBound = shared.NewDomainError(
		ErrCodePhoneNumberAlreadyBound, shared.KindDuplicate,
		"手機號碼已被其他會員使用",
	)

	ErrMemberNotFound = shared.NewDomainError(ErrCodeMemberNotFound, shared.KindNotFound, "會員不存在")

	ErrInvalidMemberID = shared.NewDomainError(ErrCodeInvalidMemberID, shared.KindValidation, "會員 ID 格式無效")

	ErrInvalidDisplayName = shared.NewDomainError(ErrCodeInvalidDisplayName, shared.KindValidation, "顯示名稱不能為空")

	// ErrNegativeSpend 累計消費不可為負（資料異常）
	ErrNegativeSpend = shared.NewDomainError(ErrCodeNegativeSpend, shared.KindValidation, "累計消費不可為負數")
)
