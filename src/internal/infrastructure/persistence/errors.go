package persistence

import (
	"errors"
	"strings"

	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"gorm.io/gorm"
)

// MapError 將 GORM 錯誤映射為 DomainError
//
// - gorm.ErrRecordNotFound → notFound
// - 已是 DomainError → 原樣回傳
// - 其他 → shared.ErrRepositoryError（保留原始訊息）
func MapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil {
		return notFound
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.ErrRepositoryError.WithContext("cause", err.Error())
}

// IsUniqueConstraintError 檢查是否為唯一約束錯誤
//
// 支援的資料庫：
// - SQLite: "UNIQUE constraint failed"
// - PostgreSQL: "duplicate key value violates unique constraint"（SQLSTATE 23505）
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	for _, marker := range []string{
		"UNIQUE constraint failed",
		"duplicate key value",
		"violates unique constraint",
		"SQLSTATE 23505",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
