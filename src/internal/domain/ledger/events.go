package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/shopspring/decimal"
)

// EventTypePaymentConfirmed 付款確認事件類型
const EventTypePaymentConfirmed = "ledger.payment_confirmed"

// PaymentConfirmedEvent 付款已確認
//
// 訂閱者：通知（PAYMENT_SUCCESS）。事件在事務提交後才發布，
// 訂閱者失敗不影響付款結果。
type PaymentConfirmedEvent struct {
	eventID        string
	paymentID      PaymentID
	memberID       member.MemberID
	registrationID RegistrationID
	amount         decimal.Decimal
	occurredAt     time.Time
}

// NewPaymentConfirmedEvent 建立付款確認事件
func NewPaymentConfirmedEvent(
	paymentID PaymentID,
	memberID member.MemberID,
	registrationID RegistrationID,
	amount decimal.Decimal,
	occurredAt time.Time,
) *PaymentConfirmedEvent {
	return &PaymentConfirmedEvent{
		eventID:        uuid.New().String(),
		paymentID:      paymentID,
		memberID:       memberID,
		registrationID: registrationID,
		amount:         amount,
		occurredAt:     occurredAt,
	}
}

func (e *PaymentConfirmedEvent) EventID() string       { return e.eventID }
func (e *PaymentConfirmedEvent) EventType() string     { return EventTypePaymentConfirmed }
func (e *PaymentConfirmedEvent) OccurredAt() time.Time { return e.occurredAt }
func (e *PaymentConfirmedEvent) AggregateID() string   { return e.paymentID.String() }

func (e *PaymentConfirmedEvent) PaymentID() PaymentID           { return e.paymentID }
func (e *PaymentConfirmedEvent) MemberID() member.MemberID      { return e.memberID }
func (e *PaymentConfirmedEvent) RegistrationID() RegistrationID { return e.registrationID }
func (e *PaymentConfirmedEvent) Amount() decimal.Decimal        { return e.amount }
