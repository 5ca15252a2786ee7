package member

import "github.com/jackyeh168/gym_crm/src/internal/domain/shared"

type MemberMarker struct{}

// MemberID 會員 ID
//
// ledger 的付款人與 notification 的收件人都使用此型別
type MemberID = shared.EntityID[MemberMarker]

func NewMemberID() MemberID {
	return shared.NewEntityID[MemberMarker]()
}

// MemberIDFromString 解析失敗回傳 ErrInvalidMemberID
func MemberIDFromString(value string) (MemberID, error) {
	return shared.ParseEntityID[MemberMarker](value, ErrInvalidMemberID)
}
