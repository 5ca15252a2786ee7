package notification

import (
	"context"
	"fmt"

	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/notification"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
)

// PaymentConfirmedHandler 付款確認後發送 PAYMENT_SUCCESS 通知
//
// 觸發實體為付款 ID，事件重送也只會有一筆通知；未連結登記的付款不發通知
type PaymentConfirmedHandler struct {
	notifications *Service
	regRepo       ledger.RegistrationRepository
}

var _ shared.EventHandler = (*PaymentConfirmedHandler)(nil)

func NewPaymentConfirmedHandler(notifications *Service, regRepo ledger.RegistrationRepository) *PaymentConfirmedHandler {
	return &PaymentConfirmedHandler{
		notifications: notifications,
		regRepo:       regRepo,
	}
}

func (h *PaymentConfirmedHandler) EventType() string {
	return ledger.EventTypePaymentConfirmed
}

func (h *PaymentConfirmedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*ledger.PaymentConfirmedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, h.EventType())
	}

	if evt.RegistrationID().IsEmpty() {
		return nil
	}

	reg, err := h.regRepo.FindByID(nil, evt.RegistrationID())
	if err != nil {
		return err
	}

	_, _, err = h.notifications.IssueOnce(ctx, IssueCommand{
		RecipientID:     evt.MemberID().String(),
		Kind:            notification.KindPaymentSuccess,
		TriggerEntityID: evt.PaymentID().String(),
		Title:           "付款成功",
		Body:            fmt.Sprintf("已收到您的付款 NT$%s，套票 %s 已啟用", evt.Amount().StringFixed(0), reg.PackageID()),
		Payload: notification.PaymentSuccessPayload{
			RegistrationID: evt.RegistrationID().String(),
			PackageID:      string(reg.PackageID()),
			PaymentID:      evt.PaymentID().String(),
			Amount:         evt.Amount(),
		},
	})
	return err
}
