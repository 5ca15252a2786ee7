package member

import (
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
)

// MemberRepository 會員倉儲接口
//
// 寫入規則：
// - Save：新增會員，手機號碼唯一性由資料庫約束保證
// - UpdateStanding：寫入等級與累計消費（last write wins，不檢查版本）
// - IncrementCompletedSessions：以 SQL 原子遞增，避免與等級重算互相覆蓋
type MemberRepository interface {
	// Save 新增會員（tx 必須 non-nil）
	//
	// 錯誤：手機號碼重複 → ErrPhoneNumberAlreadyBound
	Save(tx shared.TransactionContext, member *Member) error

	// UpdateStanding 寫入 tierID / tierAssignedAt / accumulatedSpend
	//
	// 錯誤：會員不存在 → ErrMemberNotFound
	UpdateStanding(tx shared.TransactionContext, member *Member) error

	// IncrementCompletedSessions 出席次數 +1，回傳更新後的次數
	IncrementCompletedSessions(tx shared.TransactionContext, id MemberID) (int, error)

	// FindByID 找不到時回傳 ErrMemberNotFound（tx 可為 nil）
	FindByID(tx shared.TransactionContext, id MemberID) (*Member, error)

	// ExistsByPhoneNumber 手機號碼是否已被使用
	ExistsByPhoneNumber(tx shared.TransactionContext, phoneNumber PhoneNumber) (bool, error)

	// ListIDs 依建立時間排序的全部會員 ID（批次重算用）
	ListIDs(tx shared.TransactionContext) ([]MemberID, error)
}
