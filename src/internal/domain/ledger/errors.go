package ledger

import "github.com/jackyeh168/gym_crm/src/internal/domain/shared"

// ===========================
// 錯誤代碼定義
// ===========================

const (
	// 查詢
	ErrCodeRegistrationNotFound shared.ErrorCode = "REGISTRATION_NOT_FOUND"
	ErrCodePaymentNotFound      shared.ErrorCode = "PAYMENT_NOT_FOUND"

	// 唯一性
	ErrCodeDuplicateRegistration shared.ErrorCode = "REGISTRATION_DUPLICATE"

	// 鎖定
	ErrCodeRegistrationLocked shared.ErrorCode = "REGISTRATION_LOCKED"
	ErrCodePaymentLocked      shared.ErrorCode = "PAYMENT_LOCKED"

	// 終態重複轉換
	ErrCodeAlreadyPaid      shared.ErrorCode = "ALREADY_PAID"
	ErrCodeAlreadyConfirmed shared.ErrorCode = "ALREADY_CONFIRMED"
	ErrCodePaymentFailed    shared.ErrorCode = "PAYMENT_FAILED"

	// 政策
	ErrCodePaymentPending   shared.ErrorCode = "PAYMENT_PENDING"
	ErrCodePaymentNotLinked shared.ErrorCode = "PAYMENT_NOT_LINKED"

	// 輸入驗證
	ErrCodeInvalidRegistrationID shared.ErrorCode = "REGISTRATION_ID_INVALID"
	ErrCodeInvalidPaymentID      shared.ErrorCode = "PAYMENT_ID_INVALID"
	ErrCodeInvalidBranch         shared.ErrorCode = "BRANCH_INVALID"
	ErrCodeEmptyPatch            shared.ErrorCode = "REGISTRATION_PATCH_EMPTY"
	ErrCodeInvalidPaymentAmount  shared.ErrorCode = "PAYMENT_AMOUNT_INVALID"
	ErrCodeInvalidPaymentMethod  shared.ErrorCode = "PAYMENT_METHOD_INVALID"
)

var (
	ErrRegistrationNotFound = shared.NewDomainError(ErrCodeRegistrationNotFound, shared.KindNotFound, "套票登記不存在")
	ErrPaymentNotFound      = shared.NewDomainError(ErrCodePaymentNotFound, shared.KindNotFound, "付款紀錄不存在")

	// ErrDuplicateRegistration 會員已登記過相同套票
	//
	// 由 (member_id, package_id) 唯一索引保證
	ErrDuplicateRegistration = shared.NewDomainError(ErrCodeDuplicateRegistration, shared.KindDuplicate, "會員已登記此套票")

	// ErrRegistrationLocked 已付款的登記不可修改或刪除
	ErrRegistrationLocked = shared.NewDomainError(ErrCodeRegistrationLocked, shared.KindLocked, "此登記已付款並鎖定，無法修改或刪除")

	// ErrPaymentLocked 付款已鎖定
	//
	// 觸發條件：
	// - 取消已成功的付款
	// - 登記尚未付款，但其連結的付款卻已鎖定（歷史資料不一致）
	ErrPaymentLocked = shared.NewDomainError(ErrCodePaymentLocked, shared.KindLocked, "付款已鎖定，無法變更")

	ErrAlreadyPaid      = shared.NewDomainError(ErrCodeAlreadyPaid, shared.KindAlreadyDone, "此登記已完成付款")
	ErrAlreadyConfirmed = shared.NewDomainError(ErrCodeAlreadyConfirmed, shared.KindAlreadyDone, "付款已確認")
	ErrPaymentFailed    = shared.NewDomainError(ErrCodePaymentFailed, shared.KindAlreadyDone, "付款已失敗，請重新建立付款")

	// ErrPaymentPending 已有處理中的付款，須等待其確認或取消
	ErrPaymentPending = shared.NewDomainError(ErrCodePaymentPending, shared.KindConflict, "此登記已有處理中的付款")

	// ErrPaymentNotLinked 付款不是登記目前連結的付款
	ErrPaymentNotLinked = shared.NewDomainError(ErrCodePaymentNotLinked, shared.KindConflict, "付款與登記的連結不一致")

	ErrInvalidRegistrationID = shared.NewDomainError(ErrCodeInvalidRegistrationID, shared.KindValidation, "登記 ID 格式無效")
	ErrInvalidPaymentID      = shared.NewDomainError(ErrCodeInvalidPaymentID, shared.KindValidation, "付款 ID 格式無效")
	ErrInvalidBranch         = shared.NewDomainError(ErrCodeInvalidBranch, shared.KindValidation, "分店代碼不能為空")
	ErrEmptyPatch            = shared.NewDomainError(ErrCodeEmptyPatch, shared.KindValidation, "沒有任何要更新的欄位")
	ErrInvalidPaymentAmount  = shared.NewDomainError(ErrCodeInvalidPaymentAmount, shared.KindValidation, "付款金額不可為負數")
	ErrInvalidPaymentMethod  = shared.NewDomainError(ErrCodeInvalidPaymentMethod, shared.KindValidation, "付款方式不能為空")
)
