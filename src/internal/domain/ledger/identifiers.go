package ledger

import "github.com/jackyeh168/gym_crm/src/internal/domain/shared"

type RegistrationMarker struct{}
type PaymentMarker struct{}

// RegistrationID 套票登記 ID
type RegistrationID = shared.EntityID[RegistrationMarker]

// PaymentID 付款 ID
type PaymentID = shared.EntityID[PaymentMarker]

func NewRegistrationID() RegistrationID {
	return shared.NewEntityID[RegistrationMarker]()
}

func NewPaymentID() PaymentID {
	return shared.NewEntityID[PaymentMarker]()
}

// RegistrationIDFromString 解析失敗回傳 ErrInvalidRegistrationID
func RegistrationIDFromString(s string) (RegistrationID, error) {
	return shared.ParseEntityID[RegistrationMarker](s, ErrInvalidRegistrationID)
}

// PaymentIDFromString 解析失敗回傳 ErrInvalidPaymentID
func PaymentIDFromString(s string) (PaymentID, error) {
	return shared.ParseEntityID[PaymentMarker](s, ErrInvalidPaymentID)
}
