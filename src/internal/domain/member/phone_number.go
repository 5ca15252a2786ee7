package member

import (
	"regexp"
	"strings"
)

// ===========================
// PhoneNumber Value Object
// ===========================

// PhoneNumber 會員聯絡手機（台灣行動電話）
//
// 業務規則：
// 1. 正規化後為 10 位數字，以 "09" 開頭
// 2. 接受常見輸入格式並正規化：
//    "0912-345-678"、"0912 345 678"、"+886912345678"、"886912345678"
// 3. 零值表示未提供
type PhoneNumber struct {
	value string
}

var taiwanMobilePattern = regexp.MustCompile(`^09[0-9]{8}$`)

var phoneSeparators = strings.NewReplacer("-", "", " ", "", "(", "", ")", "")

// NewPhoneNumber 建立手機號碼（Checked Constructor）
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	normalized := phoneSeparators.Replace(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, "+")
	if strings.HasPrefix(normalized, "8869") {
		normalized = "0" + strings.TrimPrefix(normalized, "886")
	}

	if !taiwanMobilePattern.MatchString(normalized) {
		return PhoneNumber{}, ErrInvalidPhoneNumberFormat.WithContext(
			"phone", raw,
			"reason", "must be 10 digits starting with 09",
		)
	}
	return PhoneNumber{value: normalized}, nil
}

// OptionalPhoneNumber 空字串回傳零值，其他輸入走 NewPhoneNumber 驗證
func OptionalPhoneNumber(raw string) (PhoneNumber, error) {
	if strings.TrimSpace(raw) == "" {
		return PhoneNumber{}, nil
	}
	return NewPhoneNumber(raw)
}

func (p PhoneNumber) String() string { return p.value }

// Equals 值相等
func (p PhoneNumber) Equals(other PhoneNumber) bool {
	return p.value == other.value
}

// IsZero 是否未提供
func (p PhoneNumber) IsZero() bool {
	return p.value == ""
}
