package ledger

import (
	"strings"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus 付款狀態
//
// 狀態機：PROCESSING → SUCCESS | FAILED，兩者皆為終態
type PaymentStatus string

const (
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentSuccess    PaymentStatus = "SUCCESS"
	PaymentFailed     PaymentStatus = "FAILED"
)

// PaymentMethod 付款方式（櫃台現金、刷卡、轉帳等，由呼叫端決定）
type PaymentMethod string

// ===========================
// Payment Aggregate Root
// ===========================

// Payment 付款聚合根
//
// 不變量（Invariants）：
// 1. locked ⇔ status = SUCCESS
// 2. 已鎖定的付款不可再變更（狀態、金額、備註）
// 3. SUCCESS / FAILED 為終態，不可再轉換
// 4. 金額不可為負數
type Payment struct {
	id             PaymentID
	memberID       member.MemberID
	registrationID *RegistrationID
	amount         decimal.Decimal
	method         PaymentMethod
	status         PaymentStatus
	locked         bool
	note           string

	createdAt   time.Time
	updatedAt   time.Time
	confirmedAt *time.Time

	loadedVersion int
	version       int

	events []shared.DomainEvent
}

// NewPayment 建立處理中的付款
func NewPayment(
	memberID member.MemberID,
	registrationID RegistrationID,
	amount decimal.Decimal,
	method PaymentMethod,
	now time.Time,
) (*Payment, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidPaymentAmount.WithContext("amount", amount.String())
	}
	if strings.TrimSpace(string(method)) == "" {
		return nil, ErrInvalidPaymentMethod
	}

	regID := registrationID
	return &Payment{
		id:             NewPaymentID(),
		memberID:       memberID,
		registrationID: &regID,
		amount:         amount,
		method:         method,
		status:         PaymentProcessing,
		createdAt:      now,
		updatedAt:      now,
		loadedVersion:  0,
		version:        1,
		events:         make([]shared.DomainEvent, 0),
	}, nil
}

// PaymentSnapshot 重建聚合用的持久化狀態
type PaymentSnapshot struct {
	ID             PaymentID
	MemberID       member.MemberID
	RegistrationID *RegistrationID
	Amount         decimal.Decimal
	Method         PaymentMethod
	Status         PaymentStatus
	Locked         bool
	Note           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ConfirmedAt    *time.Time
	Version        int
}

// ReconstructPayment 從資料庫狀態重建付款
//
// 歷史資料可能違反 locked ⇔ SUCCESS（例如手動修正過的資料），
// 重建時不修正，交由行為方法的防護條件處理。
func ReconstructPayment(s PaymentSnapshot) *Payment {
	return &Payment{
		id:             s.ID,
		memberID:       s.MemberID,
		registrationID: s.RegistrationID,
		amount:         s.Amount,
		method:         s.Method,
		status:         s.Status,
		locked:         s.Locked,
		note:           s.Note,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
		confirmedAt:    s.ConfirmedAt,
		loadedVersion:  s.Version,
		version:        s.Version,
		events:         make([]shared.DomainEvent, 0),
	}
}

// ===========================
// Guards & Behavior
// ===========================

// CheckConfirmable 確認付款前的防護條件
//
// 判斷順序：
// 1. SUCCESS → ErrAlreadyConfirmed
// 2. FAILED → ErrPaymentFailed
// 3. locked（但不是 SUCCESS）→ ErrPaymentLocked
func (p *Payment) CheckConfirmable() error {
	switch {
	case p.status == PaymentSuccess:
		return ErrAlreadyConfirmed.WithContext("payment_id", p.id.String())
	case p.status == PaymentFailed:
		return ErrPaymentFailed.WithContext("payment_id", p.id.String())
	case p.locked:
		return ErrPaymentLocked.WithContext("payment_id", p.id.String(), "status", string(p.status))
	}
	return nil
}

// Confirm 確認付款：狀態改為 SUCCESS 並鎖定
//
// 成功後記錄 PaymentConfirmedEvent，事件在事務提交後發布
func (p *Payment) Confirm(now time.Time) error {
	if err := p.CheckConfirmable(); err != nil {
		return err
	}

	p.status = PaymentSuccess
	p.locked = true
	confirmedAt := now
	p.confirmedAt = &confirmedAt
	p.touch(now)

	var regID RegistrationID
	if p.registrationID != nil {
		regID = *p.registrationID
	}
	p.events = append(p.events, NewPaymentConfirmedEvent(p.id, p.memberID, regID, p.amount, now))
	return nil
}

// CheckCancellable 取消付款前的防護條件
func (p *Payment) CheckCancellable() error {
	if p.locked || p.status == PaymentSuccess {
		return ErrPaymentLocked.WithContext("payment_id", p.id.String(), "status", string(p.status))
	}
	if p.status == PaymentFailed {
		return ErrPaymentFailed.WithContext("payment_id", p.id.String())
	}
	return nil
}

// Fail 將處理中的付款標記為 FAILED，並把原因寫入稽核備註
func (p *Payment) Fail(reason string, now time.Time) error {
	if err := p.CheckCancellable(); err != nil {
		return err
	}

	p.status = PaymentFailed
	p.appendNote(reason)
	p.touch(now)
	return nil
}

// IsPending 是否仍在處理中
func (p *Payment) IsPending() bool {
	return p.status == PaymentProcessing && !p.locked
}

// BelongsTo 付款是否屬於該會員
func (p *Payment) BelongsTo(memberID member.MemberID) bool {
	return p.memberID.Equals(memberID)
}

func (p *Payment) appendNote(reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	if p.note == "" {
		p.note = reason
		return
	}
	p.note = p.note + "; " + reason
}

func (p *Payment) touch(now time.Time) {
	p.updatedAt = now
	if p.version == p.loadedVersion {
		p.version++
	}
}

// PullEvents 取出待發布事件並清空
func (p *Payment) PullEvents() []shared.DomainEvent {
	events := p.events
	p.events = make([]shared.DomainEvent, 0)
	return events
}

// ===========================
// Getters
// ===========================

func (p *Payment) ID() PaymentID                   { return p.id }
func (p *Payment) MemberID() member.MemberID       { return p.memberID }
func (p *Payment) RegistrationID() *RegistrationID { return p.registrationID }
func (p *Payment) Amount() decimal.Decimal         { return p.amount }
func (p *Payment) Method() PaymentMethod           { return p.method }
func (p *Payment) Status() PaymentStatus           { return p.status }
func (p *Payment) Locked() bool                    { return p.locked }
func (p *Payment) Note() string                    { return p.note }
func (p *Payment) CreatedAt() time.Time            { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time            { return p.updatedAt }
func (p *Payment) ConfirmedAt() *time.Time         { return p.confirmedAt }
func (p *Payment) Version() int                    { return p.version }
func (p *Payment) LoadedVersion() int              { return p.loadedVersion }
