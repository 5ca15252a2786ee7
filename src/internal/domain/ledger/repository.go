package ledger

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
)

// RegistrationRepository 套票登記倉儲接口
//
// 寫入以樂觀鎖執行：
//
//	UPDATE registrations SET ..., version = ? WHERE id = ? AND version = ?
//
// 影響 0 筆時：記錄不存在 → ErrRegistrationNotFound；版本不符 → shared.ErrStaleRecord
type RegistrationRepository interface {
	// Save 新增登記；(member_id, package_id) 重複 → ErrDuplicateRegistration
	Save(tx shared.TransactionContext, registration *Registration) error

	// Update 以 LoadedVersion 做 compare-and-set，寫入 Version
	Update(tx shared.TransactionContext, registration *Registration) error

	// Delete 以 LoadedVersion 做 compare-and-set 刪除
	Delete(tx shared.TransactionContext, registration *Registration) error

	FindByID(tx shared.TransactionContext, id RegistrationID) (*Registration, error)

	// FindByMemberAndPackage 找不到時回傳 (nil, nil)
	FindByMemberAndPackage(tx shared.TransactionContext, memberID member.MemberID, packageID catalog.PackageID) (*Registration, error)

	// ListByMember 依建立時間排序
	ListByMember(tx shared.TransactionContext, memberID member.MemberID) ([]*Registration, error)

	// ListPaidByMember 會員所有 PAID 登記（等級重算用）
	ListPaidByMember(tx shared.TransactionContext, memberID member.MemberID) ([]*Registration, error)

	// ListExpiredBefore 到期日早於 cutoff 的登記，依 (expiresAt, id) 排序
	//
	// after 非 nil 時只回傳排在 after 之後的登記（keyset 分頁）；limit <= 0 表示不限
	ListExpiredBefore(tx shared.TransactionContext, cutoff time.Time, after *ExpiryCursor, limit int) ([]*Registration, error)
}

// ExpiryCursor 到期掃描的分頁位置
type ExpiryCursor struct {
	ExpiresAt time.Time
	ID        RegistrationID
}

// ExpiryCursorAfter 以 r 作為上一頁的最後一筆
func ExpiryCursorAfter(r *Registration) *ExpiryCursor {
	return &ExpiryCursor{ExpiresAt: r.ExpiresAt(), ID: r.ID()}
}

// PaymentRepository 付款倉儲接口
type PaymentRepository interface {
	Save(tx shared.TransactionContext, payment *Payment) error

	// Update 以 LoadedVersion 做 compare-and-set
	Update(tx shared.TransactionContext, payment *Payment) error

	FindByID(tx shared.TransactionContext, id PaymentID) (*Payment, error)

	// ListByRegistration 依建立時間排序（含已被取代的 FAILED 付款）
	ListByRegistration(tx shared.TransactionContext, registrationID RegistrationID) ([]*Payment, error)
}
