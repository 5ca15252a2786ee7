package persistence

import (
	"context"

	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"gorm.io/gorm"
)

// GORMTransactionManager 以 GORM 實作 shared.TransactionManager
type GORMTransactionManager struct {
	db *gorm.DB
}

// NewGORMTransactionManager 創建事務管理器
func NewGORMTransactionManager(db *gorm.DB) *GORMTransactionManager {
	return &GORMTransactionManager{db: db}
}

// InTransaction 在單一資料庫事務中執行 fn
//
// - fn 回傳 error：回滾並原樣回傳
// - fn panic：gorm 回滾後重新 panic
// - ctx 取消：進行中的 SQL 中止，事務回滾
func (m *GORMTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	return m.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(NewGORMTransactionContext(db))
	})
}
