package shared

import (
	"strings"

	"github.com/google/uuid"
)

// EntityID 以 UUID 為底的實體 ID
//
// T 只是標記型別：MemberID、RegistrationID、PaymentID 底層相同，
// 但在編譯期不能互相賦值，付款人與登記 ID 不會被誤傳。
type EntityID[T any] struct {
	value uuid.UUID
}

// NewEntityID 隨機產生（UUID v4）
func NewEntityID[T any]() EntityID[T] {
	return EntityID[T]{value: uuid.New()}
}

// ParseEntityID 解析外部輸入的 ID
//
// 前後空白會被去除；格式錯誤或全零 UUID 回傳 invalid 並附上輸入值。
func ParseEntityID[T any](s string, invalid *DomainError) (EntityID[T], error) {
	trimmed := strings.TrimSpace(s)
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return EntityID[T]{}, invalid.WithContext("input", s, "parse_error", err.Error())
	}
	if id == uuid.Nil {
		return EntityID[T]{}, invalid.WithContext("input", s, "parse_error", "nil uuid")
	}
	return EntityID[T]{value: id}, nil
}

func (e EntityID[T]) String() string {
	return e.value.String()
}

func (e EntityID[T]) Equals(other EntityID[T]) bool {
	return e.value == other.value
}

// IsEmpty 零值（尚未指派）
func (e EntityID[T]) IsEmpty() bool {
	return e.value == uuid.Nil
}
