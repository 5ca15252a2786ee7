package notification

import (
	"testing"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func paymentPayload() PaymentSuccessPayload {
	return PaymentSuccessPayload{
		RegistrationID: "reg-1",
		PackageID:      "monthly-basic",
		PaymentID:      "pay-1",
		Amount:         decimal.NewFromInt(1500),
	}
}

// Test 1: 建立通知
func TestNewNotification_Success(t *testing.T) {
	recipient := member.NewMemberID()

	n, err := NewNotification(recipient, KindPaymentSuccess, "pay-1", "付款成功", "您的月卡已啟用", paymentPayload(), testNow)

	require.NoError(t, err)
	assert.False(t, n.IsRead())
	assert.Nil(t, n.ReadAt())
	assert.Equal(t, KindPaymentSuccess, n.Payload().Kind())
}

// Test 2: 驗證規則
func TestNewNotification_Validation(t *testing.T) {
	recipient := member.NewMemberID()
	expired := PackageExpiredPayload{RegistrationID: "reg-1", ExpiresAt: testNow}

	tests := []struct {
		name    string
		kind    Kind
		trigger string
		title   string
		payload Payload
		want    error
	}{
		{"payload 類型不符", KindPaymentSuccess, "pay-1", "付款成功", expired, ErrPayloadMismatch},
		{"payload 為 nil", KindPackageExpired, "reg-1", "到期", nil, ErrPayloadMismatch},
		{"未知類型", Kind("BIRTHDAY"), "x", "生日快樂", expired, ErrInvalidNotification},
		{"觸發實體為空", KindPackageExpired, " ", "到期", expired, ErrInvalidNotification},
		{"標題為空", KindPackageExpired, "reg-1", "", expired, ErrInvalidNotification},
		{"payload 缺必要欄位", KindPaymentSuccess, "pay-1", "付款成功", PaymentSuccessPayload{}, ErrInvalidNotification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNotification(recipient, tt.kind, tt.trigger, tt.title, "", tt.payload, testNow)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		})
	}
}

// Test 3: 標記已讀：冪等、只有收件人可操作
func TestNotification_MarkRead(t *testing.T) {
	recipient := member.NewMemberID()
	n, err := NewNotification(recipient, KindPaymentSuccess, "pay-1", "付款成功", "", paymentPayload(), testNow)
	require.NoError(t, err)

	_, err = n.MarkRead(member.NewMemberID(), testNow)
	assert.ErrorIs(t, err, ErrNotificationForbidden)
	assert.False(t, n.IsRead())

	changed, err := n.MarkRead(recipient, testNow)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = n.MarkRead(recipient, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, testNow, *n.ReadAt(), "readAt 保留第一次的時間")
}

// Test 4: payload 依類型還原
func TestDecodePayload(t *testing.T) {
	raw, err := EncodePayload(paymentPayload())
	require.NoError(t, err)

	decoded, err := DecodePayload(KindPaymentSuccess, raw)
	require.NoError(t, err)

	p, ok := decoded.(PaymentSuccessPayload)
	require.True(t, ok, "應還原為 PaymentSuccessPayload")
	assert.Equal(t, "pay-1", p.PaymentID)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1500)))

	_, err = DecodePayload(KindPackageExpired, []byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidNotification)

	_, err = DecodePayload(Kind("UNKNOWN"), raw)
	assert.ErrorIs(t, err, ErrInvalidNotification)
}
