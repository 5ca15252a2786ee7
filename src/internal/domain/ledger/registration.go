package ledger

import (
	"strings"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/duration"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/shopspring/decimal"
)

// RegistrationPaymentStatus 登記的付款狀態
type RegistrationPaymentStatus string

const (
	RegistrationUnpaid RegistrationPaymentStatus = "UNPAID"
	RegistrationPaid   RegistrationPaymentStatus = "PAID"
)

// ===========================
// Registration Aggregate Root
// ===========================

// Registration 會員的套票登記
//
// 不變量（Invariants）：
// 1. 同一會員同一套票只能登記一次
// 2. 到期日在建立時計算一次，之後更換套票也不重算
// 3. PAID 之後任何欄位都不可經由更新或刪除變更
// 4. paidAmount 只在 PAID 時有值
// 5. 最多連結一筆付款（paymentID）；FAILED 的付款可被新付款取代
type Registration struct {
	id            RegistrationID
	memberID      member.MemberID
	packageID     catalog.PackageID
	branchID      string
	createdAt     time.Time
	expiresAt     time.Time
	paymentStatus RegistrationPaymentStatus
	paidAmount    *decimal.Decimal
	paymentID     *PaymentID
	updatedAt     time.Time

	loadedVersion int
	version       int
}

// NewRegistration 建立未付款的套票登記
//
// 業務規則：
// 1. branchID 不能為空
// 2. expiresAt = now + 套票期間（依日曆計算）
func NewRegistration(memberID member.MemberID, pkg catalog.Package, branchID string, now time.Time) (*Registration, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return nil, ErrInvalidBranch
	}

	expiresAt, err := duration.Add(now, pkg.DurationAmount, pkg.DurationUnit)
	if err != nil {
		return nil, err
	}

	return &Registration{
		id:            NewRegistrationID(),
		memberID:      memberID,
		packageID:     pkg.ID,
		branchID:      branchID,
		createdAt:     now,
		expiresAt:     expiresAt,
		paymentStatus: RegistrationUnpaid,
		updatedAt:     now,
		loadedVersion: 0,
		version:       1,
	}, nil
}

// RegistrationSnapshot 重建聚合用的持久化狀態
type RegistrationSnapshot struct {
	ID            RegistrationID
	MemberID      member.MemberID
	PackageID     catalog.PackageID
	BranchID      string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	PaymentStatus RegistrationPaymentStatus
	PaidAmount    *decimal.Decimal
	PaymentID     *PaymentID
	UpdatedAt     time.Time
	Version       int
}

// ReconstructRegistration 從資料庫狀態重建登記
func ReconstructRegistration(s RegistrationSnapshot) *Registration {
	return &Registration{
		id:            s.ID,
		memberID:      s.MemberID,
		packageID:     s.PackageID,
		branchID:      s.BranchID,
		createdAt:     s.CreatedAt,
		expiresAt:     s.ExpiresAt,
		paymentStatus: s.PaymentStatus,
		paidAmount:    s.PaidAmount,
		paymentID:     s.PaymentID,
		updatedAt:     s.UpdatedAt,
		loadedVersion: s.Version,
		version:       s.Version,
	}
}

// ===========================
// Patch
// ===========================

// RegistrationPatch 登記更新內容，nil 表示不變更
type RegistrationPatch struct {
	BranchID  *string
	PackageID *catalog.PackageID
	ExpiresAt *time.Time
}

// IsEmpty 是否沒有任何欄位
func (p RegistrationPatch) IsEmpty() bool {
	return p.BranchID == nil && p.PackageID == nil && p.ExpiresAt == nil
}

// ===========================
// Guards & Behavior
// ===========================

// EnsureMutable 已付款的登記一律拒絕修改（不論修改內容）
func (r *Registration) EnsureMutable() error {
	if r.IsPaid() {
		return ErrRegistrationLocked.WithContext("registration_id", r.id.String())
	}
	return nil
}

// ApplyPatch 套用更新
//
// 套票變更不重算到期日；重複套票檢查由 Use Case 在事務內負責
func (r *Registration) ApplyPatch(patch RegistrationPatch, now time.Time) error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return ErrEmptyPatch.WithContext("registration_id", r.id.String())
	}

	if patch.BranchID != nil {
		branchID := strings.TrimSpace(*patch.BranchID)
		if branchID == "" {
			return ErrInvalidBranch.WithContext("registration_id", r.id.String())
		}
		r.branchID = branchID
	}
	if patch.PackageID != nil {
		r.packageID = *patch.PackageID
	}
	if patch.ExpiresAt != nil {
		r.expiresAt = *patch.ExpiresAt
	}

	r.touch(now)
	return nil
}

// CheckPayable 建立新付款前的防護條件
//
// linked 為目前連結的付款（可為 nil）。判斷順序：
// 1. 登記已 PAID → ErrAlreadyPaid
// 2. 連結付款已鎖定（但登記未 PAID，歷史資料不一致）→ ErrPaymentLocked
// 3. 連結付款處理中 → ErrPaymentPending
// 4. 連結付款已 FAILED → 允許以新付款取代
func (r *Registration) CheckPayable(linked *Payment) error {
	if r.IsPaid() {
		return ErrAlreadyPaid.WithContext("registration_id", r.id.String())
	}
	if linked == nil {
		return nil
	}
	if linked.Locked() || linked.Status() == PaymentSuccess {
		return ErrPaymentLocked.WithContext(
			"registration_id", r.id.String(),
			"payment_id", linked.ID().String(),
		)
	}
	if linked.IsPending() {
		return ErrPaymentPending.WithContext(
			"registration_id", r.id.String(),
			"payment_id", linked.ID().String(),
		)
	}
	return nil
}

// LinkPayment 連結新付款（呼叫前須通過 CheckPayable）
func (r *Registration) LinkPayment(paymentID PaymentID, now time.Time) {
	id := paymentID
	r.paymentID = &id
	r.touch(now)
}

// CheckMarkPaid 確認付款時對登記的防護條件
func (r *Registration) CheckMarkPaid(paymentID PaymentID) error {
	if r.IsPaid() {
		return ErrAlreadyPaid.WithContext("registration_id", r.id.String())
	}
	if r.paymentID != nil && !r.paymentID.Equals(paymentID) {
		return ErrPaymentNotLinked.WithContext(
			"registration_id", r.id.String(),
			"linked_payment_id", r.paymentID.String(),
			"payment_id", paymentID.String(),
		)
	}
	return nil
}

// MarkPaid 標記為已付款，記錄實付金額
func (r *Registration) MarkPaid(paymentID PaymentID, amount decimal.Decimal, now time.Time) error {
	if err := r.CheckMarkPaid(paymentID); err != nil {
		return err
	}

	paid := amount
	id := paymentID
	r.paymentStatus = RegistrationPaid
	r.paidAmount = &paid
	r.paymentID = &id
	r.touch(now)
	return nil
}

// IsPaid 是否已付款
func (r *Registration) IsPaid() bool {
	return r.paymentStatus == RegistrationPaid
}

// IsExpired 到期日是否早於 now
func (r *Registration) IsExpired(now time.Time) bool {
	return r.expiresAt.Before(now)
}

// BelongsTo 登記是否屬於該會員
func (r *Registration) BelongsTo(memberID member.MemberID) bool {
	return r.memberID.Equals(memberID)
}

func (r *Registration) touch(now time.Time) {
	r.updatedAt = now
	if r.version == r.loadedVersion {
		r.version++
	}
}

// ===========================
// Getters
// ===========================

func (r *Registration) ID() RegistrationID                       { return r.id }
func (r *Registration) MemberID() member.MemberID                { return r.memberID }
func (r *Registration) PackageID() catalog.PackageID             { return r.packageID }
func (r *Registration) BranchID() string                         { return r.branchID }
func (r *Registration) CreatedAt() time.Time                     { return r.createdAt }
func (r *Registration) ExpiresAt() time.Time                     { return r.expiresAt }
func (r *Registration) PaymentStatus() RegistrationPaymentStatus { return r.paymentStatus }
func (r *Registration) PaidAmount() *decimal.Decimal             { return r.paidAmount }
func (r *Registration) PaymentID() *PaymentID                    { return r.paymentID }
func (r *Registration) UpdatedAt() time.Time                     { return r.updatedAt }
func (r *Registration) Version() int                             { return r.version }
func (r *Registration) LoadedVersion() int                       { return r.loadedVersion }
