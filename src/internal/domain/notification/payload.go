package notification

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Kind 通知類型
type Kind string

const (
	KindPaymentSuccess Kind = "PAYMENT_SUCCESS"
	KindPackageExpired Kind = "PACKAGE_EXPIRED"
	KindPartnerAdded   Kind = "PARTNER_ADDED"
)

// IsValid 是否為已知類型
func (k Kind) IsValid() bool {
	switch k {
	case KindPaymentSuccess, KindPackageExpired, KindPartnerAdded:
		return true
	}
	return false
}

// ===========================
// Payload（typed union）
// ===========================

// Payload 通知附帶的結構化資料，每種 Kind 對應一個具體型別
type Payload interface {
	Kind() Kind
	Validate() error
}

// PaymentSuccessPayload 付款成功
type PaymentSuccessPayload struct {
	RegistrationID string          `json:"registration_id"`
	PackageID      string          `json:"package_id"`
	PaymentID      string          `json:"payment_id"`
	Amount         decimal.Decimal `json:"amount"`
}

func (PaymentSuccessPayload) Kind() Kind { return KindPaymentSuccess }

func (p PaymentSuccessPayload) Validate() error {
	if p.RegistrationID == "" || p.PaymentID == "" {
		return ErrInvalidNotification.WithContext("kind", string(KindPaymentSuccess), "reason", "registration_id and payment_id are required")
	}
	return nil
}

// PackageExpiredPayload 套票到期
type PackageExpiredPayload struct {
	RegistrationID string    `json:"registration_id"`
	PackageID      string    `json:"package_id"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (PackageExpiredPayload) Kind() Kind { return KindPackageExpired }

func (p PackageExpiredPayload) Validate() error {
	if p.RegistrationID == "" || p.ExpiresAt.IsZero() {
		return ErrInvalidNotification.WithContext("kind", string(KindPackageExpired), "reason", "registration_id and expires_at are required")
	}
	return nil
}

// PartnerAddedPayload 新增訓練夥伴
type PartnerAddedPayload struct {
	PartnerMemberID string `json:"partner_member_id"`
	PartnerName     string `json:"partner_name"`
}

func (PartnerAddedPayload) Kind() Kind { return KindPartnerAdded }

func (p PartnerAddedPayload) Validate() error {
	if p.PartnerMemberID == "" {
		return ErrInvalidNotification.WithContext("kind", string(KindPartnerAdded), "reason", "partner_member_id is required")
	}
	return nil
}

// ===========================
// 編碼 / 解碼
// ===========================

// EncodePayload 序列化為 JSON（存入 JSON 欄位）
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload 依通知類型還原具體 payload
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	var (
		payload Payload
		err     error
	)

	switch kind {
	case KindPaymentSuccess:
		var p PaymentSuccessPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindPackageExpired:
		var p PackageExpiredPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindPartnerAdded:
		var p PartnerAddedPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		return nil, ErrInvalidNotification.WithContext("kind", string(kind), "reason", "unknown kind")
	}

	if err != nil {
		return nil, ErrInvalidNotification.WithContext("kind", string(kind), "decode_error", err.Error())
	}
	return payload, nil
}
